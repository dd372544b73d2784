// Package textblock parses the labelled event blocks returned by chat
// models.
//
// A block starts at a line reading "- Event:" (any case, optionally
// followed by a title on the same line). Every following non-blank line up
// to the next block must be "Label: value" with a known label:
//
//	- Event:
//	  Description: Acme acquires Widget Co
//	  Date: 2023-06-15
//	  Type: Acquisition
//	  Other Counterparty: Widget Co
//
// A single line that does not follow the grammar rejects its whole block.
// Partial guesses are never emitted.
package textblock

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agentstation/eventmap/pkg/errors"
)

// Marker opens a block.
const Marker = "- Event:"

var listNumber = regexp.MustCompile(`^\d+[.)]\s*`)

// Labels lists the accepted labels and the raw key each one produces.
var Labels = map[string]string{
	"title":               "title",
	"description":         "description",
	"date":                "date",
	"type":                "type",
	"event type":          "type",
	"other counterparty":  "other_counterparty",
	"counterparty":        "counterparty",
	"counterparty status": "counterparty_status",
	"investment":          "investment",
	"amount":              "amount",
	"enterprise value":    "enterprise_value",
	"advisors":            "advisors",
	"source":              "source",
	"url":                 "url",
	"confidence":          "confidence",
}

// Block is one accepted event block.
type Block struct {
	// Line is the 1-based line of the opening marker.
	Line   int
	Fields map[string]string
}

// Parse splits text into blocks. Accepted blocks are returned in order; the
// error joins one *errors.ParseError per rejected block and is nil when
// every block parsed.
func Parse(text string) ([]Block, error) {
	var (
		blocks []Block
		errs   []error
		cur    *Block
		bad    error
	)

	flush := func() {
		if cur == nil {
			return
		}
		switch {
		case bad != nil:
			errs = append(errs, bad)
		case len(cur.Fields) == 0:
			errs = append(errs, errors.NewParseError("textblock", "", fmt.Sprintf("block at line %d is empty", cur.Line), nil))
		default:
			blocks = append(blocks, *cur)
		}
		cur, bad = nil, nil
	}

	for i, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1

		if rest, ok := opens(line); ok {
			flush()
			cur = &Block{Line: lineNo, Fields: make(map[string]string)}
			if rest != "" {
				cur.Fields["title"] = rest
			}
			continue
		}
		if cur == nil || line == "" || bad != nil {
			continue
		}

		key, value, err := field(line)
		if err != nil {
			pe := errors.NewParseError("textblock", "", err.Error(), nil)
			pe.Line = lineNo
			bad = pe
			continue
		}
		if _, dup := cur.Fields[key]; dup {
			pe := errors.NewParseError("textblock", "", fmt.Sprintf("label %q repeated", key), nil)
			pe.Line = lineNo
			bad = pe
			continue
		}
		cur.Fields[key] = value
	}
	flush()

	if len(errs) == 0 {
		return blocks, nil
	}
	return blocks, stderrors.Join(errs...)
}

// opens reports whether line starts a block. A list number ("1." or "2)")
// in front of the marker is allowed.
func opens(line string) (string, bool) {
	line = strings.TrimSpace(listNumber.ReplaceAllString(line, ""))
	if len(line) < len(Marker) || !strings.EqualFold(line[:len(Marker)], Marker) {
		return "", false
	}
	return strings.TrimSpace(line[len(Marker):]), true
}

func field(line string) (string, string, error) {
	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", fmt.Errorf("line %q is not \"Label: value\"", line)
	}
	key, known := Labels[strings.ToLower(strings.Join(strings.Fields(label), " "))]
	if !known {
		return "", "", fmt.Errorf("unknown label %q", strings.TrimSpace(label))
	}
	return key, strings.TrimSpace(value), nil
}

// Format renders records as blocks separated by blank lines, using the
// given labels in order. Empty values render as a bare "Label:", so a single
// empty record is the layout a model is asked to fill in.
func Format(records []map[string]string, labels ...string) string {
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Marker)
		b.WriteByte('\n')
		for _, label := range labels {
			fmt.Fprintf(&b, "  %s:", label)
			if v := r[Labels[strings.ToLower(label)]]; v != "" {
				b.WriteString(" " + v)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Records converts blocks to raw field maps.
func Records(blocks []Block) []map[string]any {
	out := make([]map[string]any, 0, len(blocks))
	for _, blk := range blocks {
		m := make(map[string]any, len(blk.Fields))
		for k, v := range blk.Fields {
			m[k] = v
		}
		out = append(out, m)
	}
	return out
}
