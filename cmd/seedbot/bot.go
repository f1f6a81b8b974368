package main

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cintamani/seedgen/internal/logger"
	"github.com/cintamani/seedgen/internal/models"
	"github.com/cintamani/seedgen/internal/report"
)

// publisher is the part of telegram.Publisher used by the loop
type publisher interface {
	Publish(ctx context.Context, result *models.SelectionResult, list []byte, filename string, chart []byte) error
}

// builder produces one seed list
type builder func(ctx context.Context) (*models.SelectionResult, error)

// rebuildLoop regenerates the seed list on every tick and publishes it
// when the selected addresses differ from the last published ones
type rebuildLoop struct {
	build     builder
	publisher publisher
	format    string
	arrayName string
	interval  time.Duration
	logger    logger.Logger

	lastPublished []string
}

// runOnce builds and, if the list changed, publishes. It reports whether
// anything was published.
func (l *rebuildLoop) runOnce(ctx context.Context) (bool, error) {
	result, err := l.build(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to build seed list: %w", err)
	}

	addresses := result.Addresses()
	if l.lastPublished != nil && slices.Equal(addresses, l.lastPublished) {
		l.logger.Info().
			Str("run_id", result.RunID).
			Int("seeds", len(result.Seeds)).
			Msg("seed list unchanged, not publishing")
		return false, nil
	}

	var list bytes.Buffer
	if err := report.Write(&list, l.format, result, l.arrayName); err != nil {
		return false, err
	}

	var chart []byte
	if buf, err := report.RenderASNChart(result); err != nil {
		l.logger.Warn().Err(err).Msg("skipping chart")
	} else {
		chart = buf.Bytes()
	}

	filename := fmt.Sprintf("seeds_%s.%s", result.Network, extension(l.format))
	if err := l.publisher.Publish(ctx, result, list.Bytes(), filename, chart); err != nil {
		return false, fmt.Errorf("failed to publish: %w", err)
	}

	l.lastPublished = addresses
	return true, nil
}

// run builds immediately and then on every interval until ctx is done
func (l *rebuildLoop) run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if _, err := l.runOnce(ctx); err != nil {
			l.logger.Error().Err(err).Msg("seed list rebuild failed")
		}
		if ctx.Err() != nil {
			l.logger.Info().Msg("rebuild loop stopped")
			return
		}

		select {
		case <-ctx.Done():
			l.logger.Info().Msg("rebuild loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func extension(format string) string {
	switch format {
	case report.FormatChainParams:
		return "h"
	case report.FormatJSON:
		return "json"
	default:
		return "txt"
	}
}
