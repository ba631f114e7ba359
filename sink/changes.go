package sink

import (
	"bufio"
	"math"
	"strconv"
	"strings"

	"github.com/ScottSallinen/bentally/utils"
)

// WriteChanges writes the change counts as a list literal, followed by the accepted total:
//
//	[1.0, 0.5, 0.0]
//	Total Accepted: 3
func WriteChanges(path string, values []float64, total uint64) error {
	file, err := utils.CreateTemp(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	w.WriteString(FormatList(values))
	w.WriteString("\nTotal Accepted: " + strconv.FormatUint(total, 10))
	return utils.CommitTemp(file, path, w.Flush())
}

func FormatList(values []float64) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatFloat(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// FormatFloat renders a float as a literal that always reads back as a float: whole numbers keep a ".0",
// very small or very large magnitudes use a short exponent (5e-5, 1.2e16).
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		exp = strings.TrimPrefix(exp, "+")
		neg := strings.HasPrefix(exp, "-")
		exp = strings.TrimLeft(strings.TrimPrefix(exp, "-"), "0")
		if neg {
			exp = "-" + exp
		}
		return mant + "e" + exp
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
