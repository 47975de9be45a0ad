package runner

import (
	"strconv"
	"strings"
)

// Stats holds the cumulative copy totals extracted from the tool's summary
// block.
type Stats struct {
	FilesCopied int64
	BytesCopied int64
}

// Row labels per locale. The summary block lists Total, Copied, Skipped,
// Mismatch, Failed, Extras columns; the second column (copied) is
// authoritative. Additional locales extend these slices.
var (
	fileLabels = []string{"Files:", "Archivos:"}
	byteLabels = []string{"Bytes:"}
)

var sizeMultipliers = map[string]float64{
	"k": 1 << 10,
	"m": 1 << 20,
	"g": 1 << 30,
	"t": 1 << 40,
}

// ParseSummary scans the captured stdout for the summary block and extracts
// the copied file and byte totals. Parsing is best effort: truncated or
// unrecognized output yields zero counts, never an error, and the outcome
// tier is always derived from the exit code instead.
func ParseSummary(output string) Stats {
	var stats Stats

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)

		if rest, ok := matchLabel(line, fileLabels); ok {
			if vals := parseColumns(rest); len(vals) >= 2 {
				stats.FilesCopied = int64(vals[1])
			} else if len(vals) == 1 {
				stats.FilesCopied = int64(vals[0])
			}
		}

		if rest, ok := matchLabel(line, byteLabels); ok {
			if vals := parseColumns(rest); len(vals) >= 2 {
				stats.BytesCopied = int64(vals[1])
			} else if len(vals) == 1 {
				stats.BytesCopied = int64(vals[0])
			}
		}
	}

	return stats
}

func matchLabel(line string, labels []string) (string, bool) {
	for _, label := range labels {
		if strings.HasPrefix(line, label) {
			return line[len(label):], true
		}
	}
	return "", false
}

// parseColumns converts a summary row's tail into numeric column values. The
// tool prints large byte counts as "14.4 k"; a size suffix token scales the
// preceding value.
func parseColumns(rest string) []float64 {
	fields := strings.Fields(rest)
	vals := make([]float64, 0, len(fields))

	for _, tok := range fields {
		if mult, ok := sizeMultipliers[strings.ToLower(tok)]; ok {
			if len(vals) > 0 {
				vals[len(vals)-1] *= mult
			}
			continue
		}

		f, err := strconv.ParseFloat(normalizeNumber(tok), 64)
		if err != nil {
			continue
		}
		vals = append(vals, f)
	}

	return vals
}

// normalizeNumber strips locale thousands separators and converts a
// comma decimal separator to a dot. "1,234,567" and "1.234.567" both become
// "1234567"; "14,4" becomes "14.4".
func normalizeNumber(tok string) string {
	dots := strings.Count(tok, ".")
	commas := strings.Count(tok, ",")

	switch {
	case dots > 0 && commas > 0:
		// The rightmost separator is the decimal point.
		if strings.LastIndex(tok, ".") > strings.LastIndex(tok, ",") {
			tok = strings.ReplaceAll(tok, ",", "")
		} else {
			tok = strings.ReplaceAll(tok, ".", "")
			tok = strings.Replace(tok, ",", ".", 1)
		}
	case commas == 1 && !isThousandsGroup(tok, ','):
		tok = strings.Replace(tok, ",", ".", 1)
	case commas > 0:
		tok = strings.ReplaceAll(tok, ",", "")
	case dots == 1 && !isThousandsGroup(tok, '.'):
		// Single dot with a short fraction is a decimal point; keep it.
	case dots > 0:
		tok = strings.ReplaceAll(tok, ".", "")
	}

	return tok
}

// isThousandsGroup reports whether the single separator in tok is followed by
// exactly three digits, i.e. a grouping separator rather than a decimal one.
func isThousandsGroup(tok string, sep byte) bool {
	i := strings.IndexByte(tok, sep)
	if i < 0 {
		return false
	}
	return len(tok)-i-1 == 3
}
