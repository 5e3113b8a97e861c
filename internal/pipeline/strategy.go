package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how columns with missing values are treated.
type Strategy string

const (
	// Auto fills categorical gaps with a marker and numeric gaps with the median.
	Auto Strategy = "auto"
	// Custom fills categorical gaps with the mode and numeric gaps with the mean.
	Custom Strategy = "custom"
	// Drop removes every row missing a value in the column being processed.
	Drop Strategy = "drop"
)

// Strategies lists the accepted strategies in display order.
var Strategies = []Strategy{Auto, Custom, Drop}

// ErrUnknownStrategy is returned by ParseStrategy for names outside Strategies.
var ErrUnknownStrategy = errors.New("unknown missing-value strategy")

// ParseStrategy maps a user supplied name onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Auto:
		return Auto, nil
	case Custom:
		return Custom, nil
	case Drop:
		return Drop, nil
	default:
		return "", fmt.Errorf("%w: %q (use auto, custom or drop)", ErrUnknownStrategy, s)
	}
}

func (s Strategy) String() string { return string(s) }
