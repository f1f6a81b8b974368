package seeds

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"

	"github.com/cintamani/seedgen/internal/asn"
	"github.com/cintamani/seedgen/internal/config"
	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
)

// Pipeline runs the full seed selection over one crawler report
type Pipeline struct {
	cfg      *config.Config
	parser   *Parser
	filters  []Filter
	selector *Selector
	logger   logger.Logger
}

// NewPipeline wires parser, filters and selector from cfg
func NewPipeline(cfg *config.Config, resolver asn.Resolver, log logger.Logger) (*Pipeline, error) {
	if resolver == nil {
		return nil, fmt.Errorf("no ASN resolver configured")
	}
	if log == nil {
		log = logger.NewTestLogger()
	}

	filters, err := DefaultFilters(cfg)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		parser:   NewParser(cfg.ListenPort()),
		filters:  filters,
		selector: NewSelector(resolver, cfg.MaxSeedsPerASN, cfg.MaxSeeds, cfg.Resolver.Workers, log),
		logger:   log.WithComponent("pipeline"),
	}, nil
}

// Run reads the report from r and returns the selected seeds in ascending
// address order. A cancelled context stops the ASN stage early and returns
// the seeds admitted so far together with the context error.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (*models.SelectionResult, error) {
	start := time.Now()
	result := &models.SelectionResult{
		RunID:     xid.New().String(),
		Network:   p.cfg.Network,
		Port:      p.cfg.ListenPort(),
		Timestamp: start.UTC(),
	}
	log := p.logger.WithField("run_id", result.RunID)

	records, lines, err := p.parser.ParseReport(r)
	if err != nil {
		return nil, err
	}
	result.Stats.LinesRead = lines
	result.Stats.Parsed = len(records)

	kept, rejected := ApplyFilters(records, p.filters)
	result.Stats.Rejected = rejected

	candidates, dups := DedupeByAddress(SortByReputation(kept))
	result.Stats.Candidates = len(candidates)
	result.Stats.Duplicates = dups

	log.Info().
		Int("lines", lines).
		Int("parsed", len(records)).
		Int("candidates", len(candidates)).
		Msg("report filtered")

	sel, selErr := p.selector.Select(ctx, candidates)

	result.Seeds = SortByAddress(sel.Seeds)
	result.Failures = sel.Failures
	result.Stats.Resolved = sel.Resolved
	result.Stats.ResolveFailures = len(sel.Failures)
	result.Stats.ASNCapSkips = sel.CapSkips
	result.Stats.Admitted = len(result.Seeds)
	result.Stats.DistinctASNs = len(result.ASNCounts())
	result.Duration = time.Since(start)

	if selErr != nil {
		log.Error().Err(selErr).Int("admitted", len(result.Seeds)).Msg("seed selection interrupted")
		return result, selErr
	}

	log.Info().
		Int("seeds", result.Stats.Admitted).
		Int("asns", result.Stats.DistinctASNs).
		Int("resolve_failures", result.Stats.ResolveFailures).
		Dur("duration", result.Duration).
		Msg("seed selection complete")

	return result, nil
}
