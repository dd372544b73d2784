package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/agentstation/eventmap/pkg/events"
)

// TableHeader lists the columns of each year section.
var TableHeader = []string{"Date", "Title", "Type", "Counterparty", "Amount", "Confidence"}

// YearGroup is the events of one year in list order.
type YearGroup struct {
	// Year is the four-digit year, or events.UnknownDate.
	Year   string
	Events []events.Event
}

// GroupByYear groups events by year, most recent year first and Unknown
// last. Order inside a group is the input order.
func GroupByYear(evs []events.Event) []YearGroup {
	index := make(map[string]int)
	var groups []YearGroup
	for _, ev := range evs {
		year := ev.Year()
		if year == "" {
			year = events.UnknownDate
		}
		i, ok := index[year]
		if !ok {
			i = len(groups)
			index[year] = i
			groups = append(groups, YearGroup{Year: year})
		}
		groups[i].Events = append(groups[i].Events, ev)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Year, groups[j].Year
		if a == events.UnknownDate || b == events.UnknownDate {
			return b == events.UnknownDate && a != events.UnknownDate
		}
		return a > b
	})
	return groups
}

// WriteYearTable writes one table per year, most recent first.
func WriteYearTable(w io.Writer, evs []events.Event) error {
	if len(evs) == 0 {
		_, err := fmt.Fprintln(w, "No events found.")
		return err
	}

	for i, g := range GroupByYear(evs) {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s (%d)\n", g.Year, len(g.Events)); err != nil {
			return err
		}

		table := tablewriter.NewTable(w)
		headers := make([]any, len(TableHeader))
		for j, h := range TableHeader {
			headers[j] = h
		}
		table.Header(headers...)
		for _, ev := range g.Events {
			if err := table.Append(ev.Date, ev.Title, string(ev.Type), ev.Counterparty, ev.Amount, string(ev.Confidence)); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}
