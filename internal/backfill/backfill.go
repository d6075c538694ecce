// Package backfill downloads long historical bar ranges by paging
// bounded requests backward from the end of the range.
package backfill

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// BarSource is the slice of the protocol client a backfill needs.
type BarSource interface {
	RequestHistoricalBars(
		ctx context.Context,
		contract schema.Contract,
		end time.Time,
		duration string,
		barSize schema.BarSize,
		show schema.WhatToShow,
		useRTH bool,
	) ([]schema.Bar, error)
	RequestHeadTimestamp(
		ctx context.Context,
		contract schema.Contract,
		show schema.WhatToShow,
		useRTH bool,
	) (*time.Time, error)
}

// Config describes one backfill range.
type Config struct {
	Contract schema.Contract
	BarSize  schema.BarSize
	Show     schema.WhatToShow
	UseRTH   bool

	// Start bounds the range; zero means everything back to the head
	// timestamp.
	Start time.Time
	// End bounds the range; zero means now.
	End time.Time
	// Chunk is the span covered per request. Optional; default 1 day.
	Chunk time.Duration

	// OnChunk, when set, receives each page oldest-first as it arrives.
	OnChunk func(bars []schema.Bar) error
}

const defaultChunk = 24 * time.Hour

// Runner executes one backfill.
type Runner struct {
	src BarSource
	cfg Config
}

// New validates the config and builds a runner.
func New(src BarSource, cfg Config) (*Runner, error) {
	if src == nil {
		return nil, fmt.Errorf("backfill source is nil")
	}
	if cfg.Contract.Symbol == "" {
		return nil, fmt.Errorf("backfill contract symbol is empty")
	}
	if cfg.Chunk == 0 {
		cfg.Chunk = defaultChunk
	}
	if cfg.Chunk < time.Minute {
		return nil, fmt.Errorf("backfill chunk too small: %s", cfg.Chunk)
	}
	if !cfg.Start.IsZero() && !cfg.End.IsZero() && !cfg.End.After(cfg.Start) {
		return nil, fmt.Errorf("backfill end %s not after start %s", cfg.End, cfg.Start)
	}
	return &Runner{src: src, cfg: cfg}, nil
}

// Run pages through the range and returns all bars oldest-first,
// deduplicated on bar time.
func (r *Runner) Run(ctx context.Context) ([]schema.Bar, error) {
	cfg := r.cfg

	start := cfg.Start
	if start.IsZero() {
		head, err := r.src.RequestHeadTimestamp(ctx, cfg.Contract, cfg.Show, cfg.UseRTH)
		if err != nil {
			return nil, err
		}
		if head == nil {
			logs.Infof("backfill: no data available for %s", cfg.Contract.Key())
			return nil, nil
		}
		start = *head
	}
	end := cfg.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if !end.After(start) {
		return nil, nil
	}

	duration := DurationString(cfg.Chunk)
	seen := make(map[int64]bool)
	var all []schema.Bar

	cursor := end
	for cursor.After(start) {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		page, err := r.src.RequestHistoricalBars(
			ctx, cfg.Contract, cursor, duration, cfg.BarSize, cfg.Show, cfg.UseRTH)
		if err != nil {
			return all, err
		}

		var fresh []schema.Bar
		for _, bar := range page {
			key := bar.Time.Unix()
			if seen[key] || bar.Time.Before(start) {
				continue
			}
			seen[key] = true
			fresh = append(fresh, bar)
		}
		if len(fresh) > 0 {
			sort.Slice(fresh, func(i, j int) bool { return fresh[i].Time.Before(fresh[j].Time) })
			if cfg.OnChunk != nil {
				if err := cfg.OnChunk(fresh); err != nil {
					return all, err
				}
			}
			all = append(all, fresh...)
		}

		next := cursor.Add(-cfg.Chunk)
		if len(fresh) > 0 && fresh[0].Time.Before(next) {
			next = fresh[0].Time
		}
		if !next.Before(cursor) {
			break
		}
		cursor = next
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Time.Before(all[j].Time) })
	return all, nil
}

// DurationString renders a span as the duration field the gateway
// expects: whole days when possible, otherwise seconds.
func DurationString(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%d D", int(d/(24*time.Hour)))
	}
	return fmt.Sprintf("%d S", int(d/time.Second))
}
