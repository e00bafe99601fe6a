package main

import (
	"fmt"

	"jbudget/internal/core"
)

// parseRange builds a range from optional YYYY-MM-DD bounds.
func parseRange(from, to string) (core.DateRange, error) {
	var start, end core.Date
	var err error
	if from != "" {
		if start, err = core.ParseDate(from); err != nil {
			return core.DateRange{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if end, err = core.ParseDate(to); err != nil {
			return core.DateRange{}, fmt.Errorf("--to: %w", err)
		}
	}
	return core.NewDateRange(start, end)
}
