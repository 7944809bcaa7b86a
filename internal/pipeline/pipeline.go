// Package pipeline runs the collect-normalize-persist loop over all
// enabled sources.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lombahub/lomba-events/internal/config"
	"github.com/lombahub/lomba-events/internal/normalize"
	"github.com/lombahub/lomba-events/internal/record"
	"github.com/lombahub/lomba-events/internal/scraper"
	"github.com/lombahub/lomba-events/internal/storage"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Collected int
	Stored    int
	Skipped   int
	Failed    int
}

// Pipeline wires the collector, the normalization engine, and the store.
type Pipeline struct {
	cfg        *config.Config
	store      *storage.Store
	normalizer *normalize.Normalizer
	log        zerolog.Logger

	// DeepScrape controls whether each event's detail page is fetched
	// for the deadline line and registration link.
	DeepScrape bool

	// Now is swappable for tests.
	Now func() time.Time
}

// New builds a Pipeline from the configuration and an open store.
func New(cfg *config.Config, store *storage.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		normalizer: normalize.New(cfg.EffectiveRules()),
		log:        log,
		DeepScrape: true,
		Now:        time.Now,
	}
}

// Run collects every enabled source, normalizes each raw record, and
// upserts the survivors. A record that fails normalization is skipped,
// never fatal; a source that fails to fetch is logged and the run moves
// on to the next one.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	taxonomy, err := p.store.Categories(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("loading taxonomy: %w", err)
	}

	sources := p.cfg.EnabledSources()
	if len(sources) == 0 {
		return Stats{}, errors.New("no enabled sources")
	}

	var stats Stats
	for _, src := range sources {
		srcStats := p.runSource(ctx, src, taxonomy)
		stats.Collected += srcStats.Collected
		stats.Stored += srcStats.Stored
		stats.Skipped += srcStats.Skipped
		stats.Failed += srcStats.Failed
	}

	p.log.Info().
		Int("collected", stats.Collected).
		Int("stored", stats.Stored).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("pipeline run complete")
	return stats, nil
}

func (p *Pipeline) runSource(ctx context.Context, src config.SourceConfig, taxonomy record.Taxonomy) Stats {
	log := p.log.With().Str("source", src.Name).Logger()

	if _, err := p.store.GetOrCreateSource(ctx, src.Name, src.URL); err != nil {
		log.Error().Err(err).Msg("registering source")
		return Stats{Failed: 1}
	}

	sc := scraper.New(src, p.cfg.Retry)
	raws, err := sc.FetchEvents(ctx)
	if err != nil {
		log.Error().Err(err).Msg("collecting source")
		return Stats{Failed: 1}
	}
	log.Info().Int("count", len(raws)).Msg("collected raw events")

	var stats Stats
	stats.Collected = len(raws)
	for _, raw := range raws {
		if p.DeepScrape {
			enriched, err := sc.Enrich(ctx, raw)
			if err != nil {
				log.Warn().Err(err).Str("url", raw.URL).Msg("deep scrape failed, using listing data")
			} else {
				raw = enriched
			}
		}

		switch p.Process(ctx, raw, taxonomy, log) {
		case outcomeStored:
			stats.Stored++
		case outcomeSkipped:
			stats.Skipped++
		case outcomeFailed:
			stats.Failed++
		}
	}
	return stats
}

type outcome int

const (
	outcomeStored outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Process normalizes and stores one raw record. A panic inside the
// engine is contained here so a single malformed record cannot take
// down the run.
func (p *Pipeline) Process(ctx context.Context, raw record.RawEvent, taxonomy record.Taxonomy, log zerolog.Logger) (result outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("title", raw.TitleRaw).Msg("record processing panicked")
			result = outcomeFailed
		}
	}()

	ev, err := p.normalizer.Normalize(raw, taxonomy)
	if errors.Is(err, normalize.ErrNoTitle) {
		log.Debug().Str("url", raw.URL).Msg("skipping record without a usable title")
		return outcomeSkipped
	}
	if err != nil {
		log.Warn().Err(err).Str("title", raw.TitleRaw).Msg("normalization failed")
		return outcomeFailed
	}

	if ev.Expired(p.Now()) {
		log.Debug().Str("title", ev.Title).Time("deadline", *ev.Dates.Deadline).Msg("skipping expired event")
		return outcomeSkipped
	}

	id, err := p.store.UpsertEvent(ctx, ev)
	if err != nil {
		log.Error().Err(err).Str("title", ev.Title).Msg("storing event")
		return outcomeFailed
	}
	log.Debug().Str("id", id).Str("title", ev.Title).Msg("stored event")
	return outcomeStored
}

// Purge deletes events whose deadline has passed.
func (p *Pipeline) Purge(ctx context.Context) (int64, error) {
	deleted, err := p.store.DeleteExpired(ctx, p.Now())
	if err != nil {
		return 0, err
	}
	p.log.Info().Int64("deleted", deleted).Msg("purged expired events")
	return deleted, nil
}
