// Package report renders training and prediction results as text.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/emrekiracbedel/keystyleid/internal/model"
)

// RenderUserCounts prints per-user session counts in a stable order.
func RenderUserCounts(w io.Writer, counts map[string]int) error {
	if len(counts) == 0 {
		_, err := fmt.Fprintln(w, "No sessions collected yet.")
		return err
	}
	users := make([]string, 0, len(counts))
	for u := range counts {
		users = append(users, u)
	}
	sort.Strings(users)

	rows := make([][]string, 0, len(users))
	total := 0
	for _, u := range users {
		rows = append(rows, []string{u, fmt.Sprintf("%d", counts[u])})
		total += counts[u]
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", total)})

	lines := formatTable([]string{"User", "Sessions"}, rows, map[int]bool{1: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrainReport prints the training summary.
func RenderTrainReport(w io.Writer, r model.TrainReport) error {
	if _, err := fmt.Fprintf(w, "Accuracy: %.2f%%\n", r.Accuracy*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d (train %d / test %d)\n", r.TotalSessions, r.TrainSize, r.TestSize); err != nil {
		return err
	}
	if r.TrainSize == r.TestSize && r.TotalSessions == r.TrainSize {
		if _, err := fmt.Fprintln(w, "Note: too few sessions for a holdout split; accuracy is measured on the training set."); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return RenderUserCounts(w, r.UserCounts)
}

// RenderPrediction prints the predicted user, confidence, and the full
// probability breakdown with bars scaled to the given total width.
func RenderPrediction(w io.Writer, p model.Prediction, totalWidth int) error {
	if _, err := fmt.Fprintf(w, "Predicted user: %s\n", p.UserLabel); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Confidence: %.2f%%\n\n", p.Confidence*100); err != nil {
		return err
	}

	type entry struct {
		user string
		prob float64
	}
	entries := make([]entry, 0, len(p.Probabilities))
	for u, prob := range p.Probabilities {
		entries = append(entries, entry{user: u, prob: prob})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].prob == entries[j].prob {
			return entries[i].user < entries[j].user
		}
		return entries[i].prob > entries[j].prob
	})

	barWidth := probabilityBarWidth(totalWidth)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.user,
			fmt.Sprintf("%.2f%%", e.prob*100),
			probabilityBar(e.prob, barWidth),
		})
	}
	lines := formatTable([]string{"User", "Probability", ""}, rows, map[int]bool{1: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return utf8.RuneCountInString(value)
}
