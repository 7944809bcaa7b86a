package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lombahub/lomba-events/internal/record"
)

// OutputFormat specifies the output format.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// writeEvents renders canonical events in the requested format.
func writeEvents(w io.Writer, events []record.CanonicalEvent, format OutputFormat) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	if len(events) == 0 {
		fmt.Fprintln(w, "No events.")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%s\n", ev.Title)
		if ev.Dates.Deadline != nil {
			fmt.Fprintf(w, "  Deadline: %s\n", ev.Dates.Deadline.Format("2006-01-02"))
		}
		if ev.Dates.EventStart != nil && ev.Dates.EventEnd != nil {
			fmt.Fprintf(w, "  Event:    %s to %s\n",
				ev.Dates.EventStart.Format("2006-01-02"), ev.Dates.EventEnd.Format("2006-01-02"))
		}
		switch {
		case ev.Price.Free():
			fmt.Fprintln(w, "  Price:    free")
		case !ev.Price.Unknown():
			fmt.Fprintf(w, "  Price:    Rp%d - Rp%d\n", *ev.Price.Min, *ev.Price.Max)
		}
		if ev.RegistrationURL != "" {
			fmt.Fprintf(w, "  Register: %s\n", ev.RegistrationURL)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d events\n", len(events))
	return nil
}
