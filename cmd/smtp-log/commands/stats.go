package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jeremydumais/smtpclient-go/pkg/log"
)

// Stats summarizes a log file.
type Stats struct {
	Events      int
	Connections map[string]int
	Categories  map[log.Category]int
	SecureCount int
	First, Last time.Time
}

// Collect computes statistics over every event in the log file.
func Collect(path string) (*Stats, error) {
	r, err := log.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	stats := &Stats{
		Connections: make(map[string]int),
		Categories:  make(map[log.Category]int),
	}
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		stats.Events++
		stats.Connections[event.ConnectionID]++
		stats.Categories[event.Category]++
		if event.Secure {
			stats.SecureCount++
		}
		if stats.First.IsZero() || event.Timestamp.Before(stats.First) {
			stats.First = event.Timestamp
		}
		if event.Timestamp.After(stats.Last) {
			stats.Last = event.Timestamp
		}
	}
	return stats, nil
}

// Print writes the statistics in human-readable form.
func (s *Stats) Print(w io.Writer) {
	fmt.Fprintf(w, "Events:      %d\n", s.Events)
	fmt.Fprintf(w, "Connections: %d\n", len(s.Connections))
	fmt.Fprintf(w, "Secure:      %d\n", s.SecureCount)
	if !s.First.IsZero() {
		fmt.Fprintf(w, "Span:        %s .. %s\n",
			s.First.UTC().Format(time.RFC3339), s.Last.UTC().Format(time.RFC3339))
	}

	cats := make([]log.Category, 0, len(s.Categories))
	for cat := range s.Categories {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, cat := range cats {
		fmt.Fprintf(w, "  %-9s %d\n", cat, s.Categories[cat])
	}
}
