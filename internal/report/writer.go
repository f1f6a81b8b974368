package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cintamani/seedgen/internal/models"
)

// Output formats
const (
	FormatList        = "list"
	FormatChainParams = "chainparams"
	FormatJSON        = "json"
)

// Formats lists the accepted values of the -format flag
var Formats = []string{FormatList, FormatChainParams, FormatJSON}

type jsonSeed struct {
	Address     string  `json:"address"`
	ASN         uint32  `json:"asn"`
	Uptime30d   float64 `json:"uptime_30d"`
	LastSuccess int64   `json:"last_success"`
	UserAgent   string  `json:"user_agent"`
	Version     int     `json:"protocol_version"`
	Services    string  `json:"services"`
	Blocks      int64   `json:"blocks"`
}

type jsonReport struct {
	RunID     string                  `json:"run_id"`
	Network   string                  `json:"network"`
	Port      int                     `json:"port"`
	Generated string                  `json:"generated"`
	Seeds     []jsonSeed              `json:"seeds"`
	Failures  []models.ResolveFailure `json:"failures,omitempty"`
	Stats     models.SelectionStats   `json:"stats"`
}

// Write renders result in the given format. arrayName is the C array name
// used by the chainparams format.
func Write(w io.Writer, format string, result *models.SelectionResult, arrayName string) error {
	switch strings.ToLower(format) {
	case FormatList, "":
		return WriteList(w, result)
	case FormatChainParams:
		return WriteChainParams(w, result, arrayName)
	case FormatJSON:
		return WriteJSON(w, result)
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteList writes one dotted-quad address per line and nothing else
func WriteList(w io.Writer, result *models.SelectionResult) error {
	bw := bufio.NewWriter(w)
	for _, seed := range result.Seeds {
		if _, err := fmt.Fprintln(bw, seed.Address); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteChainParams writes the seeds as an IPv4-mapped SeedSpec6 array that
// can be pasted into chainparamsseeds.h
func WriteChainParams(w io.Writer, result *models.SelectionResult, arrayName string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "static SeedSpec6 %s[] = {\n", arrayName)
	for i, seed := range result.Seeds {
		v := seed.AddressValue
		fmt.Fprintf(bw, "    {{0x00,0x00,0x00,0x00,0x00,0x00,0x00,0x00,0x00,0x00,0xff,0xff,0x%02x,0x%02x,0x%02x,0x%02x}, %d}",
			byte(v>>24), byte(v>>16), byte(v>>8), byte(v), result.Port)
		if i < len(result.Seeds)-1 {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	bw.WriteString("};\n")

	return bw.Flush()
}

// WriteJSON writes the seeds with their selection metadata
func WriteJSON(w io.Writer, result *models.SelectionResult) error {
	out := jsonReport{
		RunID:     result.RunID,
		Network:   result.Network,
		Port:      result.Port,
		Generated: result.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
		Seeds:     make([]jsonSeed, 0, len(result.Seeds)),
		Failures:  result.Failures,
		Stats:     result.Stats,
	}
	for _, seed := range result.Seeds {
		out.Seeds = append(out.Seeds, jsonSeed{
			Address:     seed.Address,
			ASN:         seed.ASN,
			Uptime30d:   seed.Uptime30d,
			LastSuccess: seed.LastSuccess,
			UserAgent:   seed.UserAgent,
			Version:     seed.Version,
			Services:    fmt.Sprintf("%016x", seed.Services),
			Blocks:      seed.Blocks,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
