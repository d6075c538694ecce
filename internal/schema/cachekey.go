package schema

import (
	"fmt"
	"strings"
	"time"
)

// KeyComponent is one element of a cache key. The set of kinds is closed;
// FormatKeyComponent switches over all of them exhaustively.
type KeyComponent interface {
	isKeyComponent()
}

// ContractKey keys by instrument identity.
type ContractKey struct {
	Contract Contract
}

// TimeKey keys by a point in time.
type TimeKey struct {
	Time time.Time
}

// DurationKey keys by a request span.
type DurationKey struct {
	Duration time.Duration
}

// BarSizeKey keys by bar aggregation.
type BarSizeKey struct {
	Size BarSize
}

// ShowKey keys by the requested price series.
type ShowKey struct {
	Show WhatToShow
}

func (ContractKey) isKeyComponent() {}
func (TimeKey) isKeyComponent()     {}
func (DurationKey) isKeyComponent() {}
func (BarSizeKey) isKeyComponent()  {}
func (ShowKey) isKeyComponent()     {}

// FormatKeyComponent renders one component into its cache-key form.
func FormatKeyComponent(c KeyComponent) string {
	switch k := c.(type) {
	case ContractKey:
		return k.Contract.Key()
	case TimeKey:
		return k.Time.UTC().Format("20060102-15:04:05")
	case DurationKey:
		return k.Duration.String()
	case BarSizeKey:
		return strings.ReplaceAll(k.Size.Wire(), " ", "-")
	case ShowKey:
		return k.Show.Wire()
	default:
		return fmt.Sprintf("unknown(%T)", c)
	}
}

// CacheKey joins components into one key string.
func CacheKey(components ...KeyComponent) string {
	parts := make([]string, len(components))
	for i, c := range components {
		parts[i] = FormatKeyComponent(c)
	}
	return strings.Join(parts, "|")
}
