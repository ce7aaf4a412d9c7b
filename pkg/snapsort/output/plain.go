package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jamesainslie/snapsort/pkg/snapsort/organizer"
)

// PlainFormatter writes an uncolored STATUS/SOURCE/DESTINATION table for
// scripting.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *organizer.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := fmt.Fprintln(tw, "STATUS\tSOURCE\tDESTINATION"); err != nil {
		return err
	}
	for _, file := range r.Files {
		dst := file.Destination
		if dst == "" {
			dst = "-"
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", file.Status, file.Source, dst); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter { return &PlainFormatter{} })
}

var _ Formatter = (*PlainFormatter)(nil)
