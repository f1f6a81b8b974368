package seeds

import (
	"context"
	"fmt"

	syncutil "github.com/projectdiscovery/utils/sync"

	"github.com/cintamani/seedgen/internal/asn"
	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
)

// Selection is the outcome of one ASN diversity pass. Seeds are in
// admission (reputation) order.
type Selection struct {
	Seeds    []models.Seed
	Failures []models.ResolveFailure
	Resolved int
	CapSkips int
}

// Selector admits candidates greedily in reputation order while holding at
// most maxPerASN seeds per autonomous system and maxTotal seeds overall
type Selector struct {
	resolver  asn.Resolver
	maxPerASN int
	maxTotal  int
	workers   int
	logger    logger.Logger
}

// NewSelector creates a selector. Lookups are issued by up to workers
// goroutines at a time.
func NewSelector(resolver asn.Resolver, maxPerASN, maxTotal, workers int, log logger.Logger) *Selector {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.NewTestLogger()
	}
	return &Selector{
		resolver:  resolver,
		maxPerASN: maxPerASN,
		maxTotal:  maxTotal,
		workers:   workers,
		logger:    log.WithComponent("selector"),
	}
}

type lookup struct {
	asn uint32
	err error
}

// Select walks candidates in order and returns the admitted seeds.
//
// Candidates are resolved one batch of workers at a time and the batch is
// then reconciled strictly in input order, so the result is the same as a
// sequential pass for any worker count. Resolution failures are logged and
// the candidate skipped. The walk ends as soon as maxTotal seeds are
// admitted or ctx is done.
func (s *Selector) Select(ctx context.Context, candidates []models.PeerRecord) (*Selection, error) {
	sel := &Selection{}
	if s.maxTotal <= 0 || s.maxPerASN <= 0 {
		return sel, nil
	}

	counts := make(map[uint32]int)

	for start := 0; start < len(candidates); start += s.workers {
		if err := ctx.Err(); err != nil {
			return sel, err
		}

		end := start + s.workers
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		results, err := s.resolveBatch(ctx, batch)
		if err != nil {
			return sel, err
		}

		for i, rec := range batch {
			res := results[i]
			if res.err != nil {
				s.logger.Warn().
					Str("address", rec.Address).
					Err(res.err).
					Msg("could not resolve ASN")
				sel.Failures = append(sel.Failures, models.ResolveFailure{
					Address: rec.Address,
					Error:   res.err.Error(),
				})
				continue
			}

			sel.Resolved++
			if counts[res.asn] >= s.maxPerASN {
				sel.CapSkips++
				s.logger.Debug().
					Str("address", rec.Address).
					Uint32("asn", res.asn).
					Msg("ASN already at capacity")
				continue
			}

			counts[res.asn]++
			sel.Seeds = append(sel.Seeds, models.Seed{PeerRecord: rec, ASN: res.asn})
			if len(sel.Seeds) >= s.maxTotal {
				return sel, nil
			}
		}
	}

	return sel, nil
}

func (s *Selector) resolveBatch(ctx context.Context, batch []models.PeerRecord) ([]lookup, error) {
	results := make([]lookup, len(batch))

	if len(batch) == 1 {
		results[0].asn, results[0].err = s.resolver.ResolveASN(ctx, batch[0].Address)
		return results, nil
	}

	awg, err := syncutil.New(syncutil.WithSize(s.workers))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker group: %w", err)
	}

	for i, rec := range batch {
		awg.Add()
		go func(i int, addr string) {
			defer awg.Done()
			results[i].asn, results[i].err = s.resolver.ResolveASN(ctx, addr)
		}(i, rec.Address)
	}
	awg.Wait()

	return results, nil
}
