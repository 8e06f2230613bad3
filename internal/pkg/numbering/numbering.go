// Package numbering issues human-readable yearly document numbers such as CLM-2026-0042.
package numbering

import (
	"context"
	"fmt"
	"time"
)

// MaxAttempts is how many sequence candidates are tried before falling back to a timestamp.
const MaxAttempts = 5

// CountFunc returns how many documents already exist for a year.
type CountFunc func(ctx context.Context, year int) (int64, error)

// ExistsFunc reports whether a number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// Next returns <prefix>-<year>-<seq>. After MaxAttempts taken candidates, or when fallback
// is set, the sequence is replaced by the unix-millis timestamp.
func Next(ctx context.Context, prefix string, now time.Time, fallback bool, count CountFunc, exists ExistsFunc) (string, error) {
	year := now.Year()
	if !fallback {
		n, err := count(ctx, year)
		if err != nil {
			return "", fmt.Errorf("count %s numbers: %w", prefix, err)
		}
		for attempt := int64(0); attempt < MaxAttempts; attempt++ {
			number := fmt.Sprintf("%s-%d-%04d", prefix, year, n+1+attempt)
			taken, err := exists(ctx, number)
			if err != nil {
				return "", fmt.Errorf("check %s number: %w", prefix, err)
			}
			if !taken {
				return number, nil
			}
		}
	}
	return fmt.Sprintf("%s-%d-%d", prefix, year, now.UnixMilli()), nil
}
