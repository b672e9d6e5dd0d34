package dispatch

import (
	"context"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysmond/internal/logger"
)

const (
	valueSeparator   = " - "
	valueUnavailable = "N/A"
)

// Supplier produces the value(s) for one summary entry at dispatch time.
// A scalar metric returns one element; a multi-valued metric (e.g.
// used/total) returns its sub-values in fixed order.
type Supplier func(ctx context.Context) ([]float64, error)

// DumpInfo describes one entry of a summary batch. Immutable.
type DumpInfo struct {
	// Label prefixes the entry's line in the composed message.
	Label string

	Supplier Supplier

	// LogTarget is the logical stream the entry's line is audited to on
	// each dispatch. Empty means no audit line.
	LogTarget string

	// Units are joined positionally onto sub-values. When there are fewer
	// units than values, trailing values carry no unit.
	Units []string
}

type auditLine struct {
	stream string
	text   string
}

// composeSummary invokes every supplier and builds the aggregated message,
// one line per entry, sub-values joined with " - " and positional units.
// A failing supplier degrades its own entry to N/A instead of failing the
// whole batch.
func composeSummary(ctx context.Context, batch []DumpInfo) (string, []auditLine) {
	var message strings.Builder
	var lines []auditLine

	for _, info := range batch {
		sub := info.Label + ": "

		values, err := info.Supplier(ctx)
		if err != nil {
			logger.Warn().Err(err).Str("label", info.Label).Msg("Summary supplier failed")
			sub += valueUnavailable
		} else {
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = formatValue(v)
				if i < len(info.Units) {
					parts[i] += info.Units[i]
				}
			}
			sub += strings.Join(parts, valueSeparator)
		}

		if info.LogTarget != "" {
			lines = append(lines, auditLine{stream: info.LogTarget, text: sub})
		}

		message.WriteString(sub)
		message.WriteString("\n")
	}

	return message.String(), lines
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
