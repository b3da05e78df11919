package cmd

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/amaumene/showlink/internal/domain"
	"github.com/olekukonko/tablewriter"
)

func renderRelated(w io.Writer, items []domain.RelatedShowsListItem) error {
	table := tablewriter.NewTable(w)
	table.Header("#", "Show ID", "Trakt ID", "Title", "Year", "State")

	for _, item := range items {
		err := table.Append(
			strconv.Itoa(item.Entry.OrderIndex),
			strconv.FormatInt(item.Show.ID, 10),
			strconv.FormatInt(item.Show.TraktID, 10),
			item.Show.Title,
			formatYear(item.Show.Year),
			showState(&item.Show),
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func formatYear(year int64) string {
	if year == 0 {
		return "-"
	}
	return strconv.FormatInt(year, 10)
}

func showState(show *domain.Show) string {
	switch {
	case show.Tracked:
		return "tracked"
	case show.Placeholder:
		return "pending"
	default:
		return "fetched"
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
