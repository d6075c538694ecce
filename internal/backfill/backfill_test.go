package backfill

import (
	"context"
	"fmt"
	"testing"
	"time"

	"main/internal/schema"
)

// fakeSource serves minute bars from a fixed range.
type fakeSource struct {
	first, last time.Time
	head        *time.Time
	requests    int
}

func (s *fakeSource) RequestHistoricalBars(
	_ context.Context,
	_ schema.Contract,
	end time.Time,
	duration string,
	_ schema.BarSize,
	_ schema.WhatToShow,
	_ bool,
) ([]schema.Bar, error) {
	s.requests++
	span, err := parseDuration(duration)
	if err != nil {
		return nil, err
	}
	from := end.Add(-span)
	if from.Before(s.first) {
		from = s.first
	}
	var bars []schema.Bar
	for t := from.Truncate(time.Minute); t.Before(end) && !t.After(s.last); t = t.Add(time.Minute) {
		if t.Before(s.first) {
			continue
		}
		bars = append(bars, schema.Bar{Time: t, Close: 100})
	}
	return bars, nil
}

func (s *fakeSource) RequestHeadTimestamp(
	_ context.Context, _ schema.Contract, _ schema.WhatToShow, _ bool,
) (*time.Time, error) {
	return s.head, nil
}

func parseDuration(s string) (time.Duration, error) {
	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d %s", &n, &unit); err != nil {
		return 0, err
	}
	if unit == "D" {
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.Duration(n) * time.Second, nil
}

func TestBackfillCoversRange(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{first: base, last: base.Add(6 * time.Hour)}

	runner, err := New(src, Config{
		Contract: schema.Contract{Symbol: "AAPL", SecType: "STK"},
		BarSize:  schema.BarSize1Min,
		Start:    base,
		End:      base.Add(6 * time.Hour),
		Chunk:    2 * time.Hour,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bars, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bars) != 6*60 {
		t.Fatalf("expected %d bars, got %d", 6*60, len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			t.Fatalf("bars not strictly ascending at %d", i)
		}
	}
	if src.requests < 3 {
		t.Fatalf("expected multiple pages, got %d requests", src.requests)
	}
}

func TestBackfillUsesHeadTimestamp(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	head := base.Add(4 * time.Hour)
	src := &fakeSource{first: head, last: base.Add(6 * time.Hour), head: &head}

	runner, err := New(src, Config{
		Contract: schema.Contract{Symbol: "AAPL", SecType: "STK"},
		BarSize:  schema.BarSize1Min,
		End:      base.Add(6 * time.Hour),
		Chunk:    time.Hour,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bars, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bars) != 2*60 {
		t.Fatalf("expected %d bars, got %d", 2*60, len(bars))
	}
	if bars[0].Time.Before(head) {
		t.Fatalf("bar before the head timestamp: %s", bars[0].Time)
	}
}

func TestBackfillNilHeadMeansNoData(t *testing.T) {
	src := &fakeSource{}
	runner, err := New(src, Config{
		Contract: schema.Contract{Symbol: "AAPL", SecType: "STK"},
		BarSize:  schema.BarSize1Min,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bars, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bars != nil {
		t.Fatalf("expected no bars, got %d", len(bars))
	}
}

func TestBackfillChunkCallback(t *testing.T) {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{first: base, last: base.Add(2 * time.Hour)}

	var chunks int
	var streamed int
	runner, err := New(src, Config{
		Contract: schema.Contract{Symbol: "AAPL", SecType: "STK"},
		BarSize:  schema.BarSize1Min,
		Start:    base,
		End:      base.Add(2 * time.Hour),
		Chunk:    time.Hour,
		OnChunk: func(bars []schema.Bar) error {
			chunks++
			streamed += len(bars)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bars, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if chunks < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", chunks)
	}
	if streamed != len(bars) {
		t.Fatalf("chunk stream saw %d bars, result has %d", streamed, len(bars))
	}
}

func TestDurationString(t *testing.T) {
	testCases := []struct {
		in   time.Duration
		want string
	}{
		{time.Hour, "3600 S"},
		{24 * time.Hour, "1 D"},
		{48 * time.Hour, "2 D"},
		{90 * time.Minute, "5400 S"},
	}
	for _, tc := range testCases {
		if got := DurationString(tc.in); got != tc.want {
			t.Fatalf("DurationString(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
