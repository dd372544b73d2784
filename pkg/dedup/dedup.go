// Package dedup collapses events that describe the same occurrence.
//
// Two events are duplicates when their title prefix, date, and source
// identity agree. Source identity is canonicalized so that a publication
// and its domain name ("Reuters", "reuters.com") are the same source.
package dedup

import (
	"strings"
	"unicode"

	"github.com/agentstation/eventmap/pkg/events"
)

// PrefixLength is the number of runes of title text compared.
const PrefixLength = 80

// Key identifies an event for duplicate detection.
type Key struct {
	Text   string
	Date   string
	Source string
}

// String renders the key as a stable identifier.
func (k Key) String() string {
	return k.Text + "|" + k.Date + "|" + k.Source
}

// KeyOf computes the duplicate-detection key of an event.
func KeyOf(ev events.Event) Key {
	text := ev.Title
	if text == "" {
		text = ev.Description
	}
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	if r := []rune(text); len(r) > PrefixLength {
		text = string(r[:PrefixLength])
	}
	return Key{
		Text:   text,
		Date:   ev.Date,
		Source: CanonicalSource(ev.Source),
	}
}

// Drop records a duplicate that was removed in favor of an earlier event.
type Drop struct {
	Event events.Event
	Key   Key
	// Index is the position of the duplicate in the input.
	Index int
	// Kept is the index, in the output, of the surviving event.
	Kept int
}

// Deduplicate keeps the first event of each key, preserving input order.
func Deduplicate(in []events.Event) ([]events.Event, []Drop) {
	out := make([]events.Event, 0, len(in))
	var drops []Drop
	seen := make(map[Key]int, len(in))

	for i, ev := range in {
		k := KeyOf(ev)
		if at, ok := seen[k]; ok {
			drops = append(drops, Drop{Event: ev, Key: k, Index: i, Kept: at})
			continue
		}
		seen[k] = len(out)
		out = append(out, ev)
	}
	return out, drops
}

// suffixes are stripped from a source host, longest first.
var suffixes = []string{".co.uk", ".com", ".net", ".org", ".gov", ".io", ".co"}

// CanonicalSource reduces a source label or URL to its identity: lowercase,
// no scheme, no "www.", no path, no common top-level suffix, no trailing
// "api" word, alphanumerics only.
func CanonicalSource(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if !strings.ContainsRune(s, ' ') {
		for _, suf := range suffixes {
			if strings.HasSuffix(s, suf) && len(s) > len(suf) {
				s = strings.TrimSuffix(s, suf)
				break
			}
		}
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if n := len(words); n > 1 && words[n-1] == "api" {
		words = words[:n-1]
	}
	return strings.Join(words, "")
}
