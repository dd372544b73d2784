package output

import (
	"fmt"
	"io"

	"github.com/agentstation/eventmap/pkg/export"
	"github.com/agentstation/eventmap/pkg/provenance"
)

// WriteDocument renders a reconciled document. The table format prints one
// section per year; prov, when non-empty, is appended to the table view.
func WriteDocument(w io.Writer, format Format, doc *export.Document, prov provenance.Map) error {
	switch format {
	case FormatJSON:
		return export.WriteJSON(w, doc)
	case FormatYAML:
		return export.WriteYAML(w, doc)
	case FormatCSV:
		return export.WriteCSV(w, doc.Events)
	}

	if _, err := fmt.Fprintf(w, "%s: %d events, %d verified\n\n", doc.Company, len(doc.Events), doc.VerifiedCount); err != nil {
		return err
	}
	if err := export.WriteYearTable(w, doc.Events); err != nil {
		return err
	}
	if len(prov) > 0 {
		if _, err := fmt.Fprintf(w, "\n%s", prov.String()); err != nil {
			return err
		}
	}
	return nil
}
