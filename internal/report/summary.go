package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cintamani/seedgen/internal/models"
)

// Summary formats the run statistics as Telegram Markdown
func Summary(result *models.SelectionResult) string {
	var b strings.Builder
	s := result.Stats

	fmt.Fprintf(&b, "🌱 *Seed list for %s* (port %d)\n", result.Network, result.Port)
	fmt.Fprintf(&b, "🕒 %s UTC, run `%s`\n\n", result.Timestamp.UTC().Format("2006-01-02 15:04"), result.RunID)

	fmt.Fprintf(&b, "📄 Lines read: %d, parsed: %d\n", s.LinesRead, s.Parsed)
	if len(s.Rejected) > 0 {
		reasons := make([]string, 0, len(s.Rejected))
		for name := range s.Rejected {
			reasons = append(reasons, name)
		}
		sort.Strings(reasons)
		parts := make([]string, 0, len(reasons))
		for _, name := range reasons {
			parts = append(parts, fmt.Sprintf("%s %d", reasonLabel(name), s.Rejected[name]))
		}
		fmt.Fprintf(&b, "🚫 Filtered: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "🔎 Candidates: %d (%d duplicates dropped)\n", s.Candidates, s.Duplicates)
	fmt.Fprintf(&b, "🌐 Resolved: %d, failed: %d, over ASN cap: %d\n", s.Resolved, s.ResolveFailures, s.ASNCapSkips)
	fmt.Fprintf(&b, "✅ *Seeds: %d* across %d ASNs\n", s.Admitted, s.DistinctASNs)

	if top := TopASNs(result, 5); len(top) > 0 {
		b.WriteString("\n*Top ASNs:*\n")
		for _, item := range top {
			fmt.Fprintf(&b, "• AS%d: %d\n", item.ASN, item.Count)
		}
	}

	fmt.Fprintf(&b, "\n⏱ Took %s", formatDuration(result.Duration))

	return b.String()
}

// reasonLabel turns a filter name into plain words. Underscores would
// open an italic entity in Telegram Markdown.
func reasonLabel(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// formatDuration formats a duration into a human-readable string
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%d secs", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%d mins", int(d.Minutes()))
	}
	return fmt.Sprintf("%d hours", int(d.Hours()))
}
