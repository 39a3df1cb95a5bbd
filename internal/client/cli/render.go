package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagewatch/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

func statusLabel(s models.Status) string {
	switch s {
	case models.StatusNew:
		return "NEW"
	case models.StatusStable:
		return "STABLE"
	case models.StatusChanged:
		return "CHANGED"
	}
	return strings.ToUpper(string(s))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

// renderCard writes one monitor as a small text card.
func renderCard(w io.Writer, pos int, m models.Monitor) {
	fmt.Fprintf(w, "[%d] %s  %s\n", pos, m.Name, statusLabel(m.Status))
	fmt.Fprintf(w, "    id:       %s\n", m.ID)
	fmt.Fprintf(w, "    url:      %s\n", m.URL)
	fmt.Fprintf(w, "    selector: %s\n", m.Selector)
	fmt.Fprintf(w, "    value:    %s\n", m.ValueOr("-"))
	fmt.Fprintf(w, "    checked:  %s\n", formatTime(m.LastChecked))
}

func renderCards(w io.Writer, list []models.Monitor) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No monitors yet. Use 'add' to create one.")
		return
	}
	for i, m := range list {
		renderCard(w, i+1, m)
	}
}

func renderHistory(w io.Writer, entries []models.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No values recorded yet.")
		return
	}
	for _, e := range entries {
		at := e.ObservedAt
		fmt.Fprintf(w, "%s  %-8s %s\n", formatTime(&at), statusLabel(e.Status), e.Value)
	}
}
