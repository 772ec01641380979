package datasource

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
)

// fragmentBody joins detail lines and appends the fenced data block.
// data must be empty or newline-terminated so the closing fence starts
// its own line.
func fragmentBody(lines []string, data string) string {
	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	if data != "" {
		b.WriteString("\nData:\n```\n")
		b.WriteString(data)
		b.WriteString("```")
	}
	return b.String()
}

// writeCSV renders records with standard quoting and a trailing newline.
func writeCSV(records [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatValue renders a datapoint the way the prompt expects: shortest
// decimal form that round-trips, so 4.0 prints as "4" and 3.5 as "3.5".
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
