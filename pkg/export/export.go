// Package export renders reconciled events as a JSON or YAML document, a
// CSV sheet, and a year-grouped text table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/eventmap/pkg/constants"
	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
)

// Document is the serialized result of one run.
type Document struct {
	Company       string         `json:"company" yaml:"company"`
	Events        []events.Event `json:"events" yaml:"events"`
	VerifiedCount int            `json:"verified_count" yaml:"verified_count"`
	LastUpdated   string         `json:"last_updated" yaml:"last_updated"`
}

// NewDocument builds a document. VerifiedCount is the number of tier-A
// events; LastUpdated is now in RFC3339 UTC.
func NewDocument(company string, evs []events.Event, now time.Time) *Document {
	if evs == nil {
		evs = []events.Event{}
	}
	verified := 0
	for _, ev := range evs {
		if ev.Confidence.Verified() {
			verified++
		}
	}
	return &Document{
		Company:       company,
		Events:        evs,
		VerifiedCount: verified,
		LastUpdated:   now.UTC().Format(time.RFC3339),
	}
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteYAML writes the document as YAML.
func WriteYAML(w io.Writer, doc *Document) error {
	data, err := yaml.MarshalWithOptions(doc, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// CSVHeader lists the CSV columns in order.
var CSVHeader = []string{"Date", "Title", "Type", "Counterparty", "Amount", "Source"}

// WriteCSV writes one row per event in list order.
func WriteCSV(w io.Writer, evs []events.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, ev := range evs {
		if err := cw.Write([]string{ev.Date, ev.Title, string(ev.Type), ev.Counterparty, ev.Amount, ev.Source}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileStem turns a company name into a file-name stem: "Acme Corp" becomes
// "Acme_Corp". Path separators and other punctuation are dropped.
func FileStem(company string) string {
	var b strings.Builder
	for _, word := range strings.Fields(company) {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' || r == '&' {
				return r
			}
			return -1
		}, word)
		clean = strings.Trim(clean, ".")
		if clean == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('_')
		}
		b.WriteString(clean)
	}
	if b.Len() == 0 {
		return "company"
	}
	return b.String()
}

// Paths are the files SaveFiles writes.
type Paths struct {
	JSON string
	CSV  string
}

// SaveFiles writes <Company_Name>_events.json and <Company_Name>_events.csv
// into dir, creating it if needed.
func SaveFiles(dir string, doc *Document) (Paths, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return Paths{}, errors.WrapIO("create", dir, err)
	}
	stem := FileStem(doc.Company)
	paths := Paths{
		JSON: filepath.Join(dir, stem+"_events.json"),
		CSV:  filepath.Join(dir, stem+"_events.csv"),
	}
	if err := writeFile(paths.JSON, func(w io.Writer) error { return WriteJSON(w, doc) }); err != nil {
		return Paths{}, err
	}
	if err := writeFile(paths.CSV, func(w io.Writer) error { return WriteCSV(w, doc.Events) }); err != nil {
		return Paths{}, err
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions) //nolint:gosec // path built from the output dir
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WrapIO("close", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
