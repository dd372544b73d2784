// Package normalize converts raw source records into canonical events.
//
// Each producer's records are read through an explicit field mapping, so a
// producer that changes its field names surfaces as schema drift instead of
// silently landing values in the wrong field. Unresolvable fields take
// their sentinel defaults; only records with no title or description are
// dropped.
package normalize

import (
	"reflect"
	"sort"
	"time"

	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
)

// Diagnostics describes what happened to one record.
type Diagnostics struct {
	// Dropped is true when the record had no usable title or description.
	Dropped bool
	// Unmapped lists raw keys the producer mapping does not declare.
	Unmapped []string
	// Collisions lists normalized keys that several raw spellings carried
	// with different values (Date and date, say). Such keys are ignored.
	Collisions []string
	// Err is a *errors.MalformedRecordError when some field could not be
	// interpreted; nil otherwise.
	Err error
}

// Normalizer maps raw records onto canonical events.
type Normalizer struct {
	fallback  *compiled
	producers map[string]*compiled
}

type options struct {
	fallback  Mapping
	producers map[string]Mapping
}

// Option configures a Normalizer.
type Option func(*options) error

// WithMapping sets the mapping used for records from one producer.
func WithMapping(producer string, m Mapping) Option {
	return func(o *options) error {
		if producer == "" {
			return errors.NewValidationError("producer", producer, "cannot be empty")
		}
		o.producers[producer] = m
		return nil
	}
}

// WithDefaultMapping replaces the mapping used for producers without their own.
func WithDefaultMapping(m Mapping) Option {
	return func(o *options) error {
		o.fallback = m
		return nil
	}
}

// New creates a Normalizer. Every mapping is validated up front.
func New(opts ...Option) (*Normalizer, error) {
	o := &options{
		fallback:  DefaultMapping(),
		producers: make(map[string]Mapping),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	fallback, err := compile(o.fallback)
	if err != nil {
		return nil, err
	}
	n := &Normalizer{
		fallback:  fallback,
		producers: make(map[string]*compiled, len(o.producers)),
	}
	for producer, m := range o.producers {
		c, err := compile(m)
		if err != nil {
			return nil, errors.NewConfigError("mapping "+producer, "invalid field mapping", err)
		}
		n.producers[producer] = c
	}
	return n, nil
}

func (n *Normalizer) mapping(producer string) *compiled {
	if c, ok := n.producers[producer]; ok {
		return c
	}
	return n.fallback
}

// record is a raw record with normalized keys.
type record struct {
	fields    map[string]any
	ambiguous map[string]bool
	bad       []string
}

func newRecord(raw map[string]any) *record {
	r := &record{
		fields:    make(map[string]any, len(raw)),
		ambiguous: make(map[string]bool),
	}
	for k, v := range raw {
		nk := keyOf(k)
		if prev, dup := r.fields[nk]; dup && !reflect.DeepEqual(prev, v) {
			r.ambiguous[nk] = true
			continue
		}
		r.fields[nk] = v
	}
	return r
}

func (r *record) collisions() []string {
	if len(r.ambiguous) == 0 {
		return nil
	}
	keys := make([]string, 0, len(r.ambiguous))
	for k := range r.ambiguous {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lookup returns the first resolved value among keys.
func (r *record) lookup(field Field, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := r.fields[k]
		if !ok {
			continue
		}
		if r.ambiguous[k] {
			r.flag(string(field))
			continue
		}
		s, usable := text(v)
		if !usable {
			r.flag(string(field))
			continue
		}
		if !Unresolved(s) {
			return s, true
		}
	}
	return "", false
}

func (r *record) flag(field string) {
	for _, f := range r.bad {
		if f == field {
			return
		}
	}
	r.bad = append(r.bad, field)
}

// Normalize converts one raw record. It never fails: fields that cannot be
// interpreted take their sentinel and are listed in the diagnostics.
func (n *Normalizer) Normalize(raw events.RawRecord) (events.Event, Diagnostics) {
	m := n.mapping(raw.Producer)
	r := newRecord(raw.Fields)

	var diag Diagnostics
	for k := range r.fields {
		if !m.declared[k] {
			diag.Unmapped = append(diag.Unmapped, k)
		}
	}
	sort.Strings(diag.Unmapped)
	diag.Collisions = r.collisions()

	title, hasTitle := r.lookup(FieldTitle, m.keys[FieldTitle])
	desc, hasDesc := r.lookup(FieldDescription, m.keys[FieldDescription])
	if !hasTitle && !hasDesc {
		diag.Dropped = true
		diag.Err = errors.NewMalformedRecordError(raw.Producer, "no title or description", append(r.bad, string(FieldTitle))...)
		return events.Event{}, diag
	}
	if !hasTitle {
		title = desc
	}
	if !hasDesc {
		desc = title
	}

	ev := events.Event{
		Title:        title,
		Description:  desc,
		Date:         n.date(r, m),
		Type:         events.TypeOther,
		Counterparty: events.NoCounterparty,
		Amount:       events.UndisclosedAmount,
		Source:       events.UnknownSource,
		URL:          events.NoURL,
	}

	if s, ok := r.lookup(FieldType, m.keys[FieldType]); ok {
		ev.Type, _ = events.ParseType(s)
	}
	if s, ok := r.lookup(FieldCounterparty, m.keys[FieldCounterparty]); ok {
		ev.Counterparty = s
	}
	if s, ok := r.lookup(FieldAmount, m.keys[FieldAmount]); ok {
		ev.Amount = s
	}
	if s, ok := r.lookup(FieldSource, m.keys[FieldSource]); ok {
		ev.Source = s
	}
	if s, ok := r.lookup(FieldURL, m.keys[FieldURL]); ok {
		ev.URL = s
	}
	if s, ok := r.lookup(FieldConfidence, m.keys[FieldConfidence]); ok {
		ev.Confidence = events.ParseTier(s)
	}

	if len(r.bad) > 0 {
		diag.Err = errors.NewMalformedRecordError(raw.Producer, "fields could not be interpreted", r.bad...)
	}
	return ev, diag
}

// date resolves the first present date key. Numbers are Unix timestamps.
func (n *Normalizer) date(r *record, m *compiled) string {
	for _, k := range m.keys[FieldDate] {
		v, ok := r.fields[k]
		if !ok || v == nil {
			continue
		}
		if r.ambiguous[k] {
			r.flag(string(FieldDate))
			continue
		}
		switch t := v.(type) {
		case float64:
			if t >= 1e9 {
				return FromUnix(t)
			}
		case int64:
			if t >= 1e9 {
				return FromUnix(float64(t))
			}
		case int:
			if t >= 1e9 {
				return FromUnix(float64(t))
			}
		case uint64:
			if t >= 1e9 {
				return FromUnix(float64(t))
			}
		case time.Time:
			// YAML timestamps decode to time.Time
			if !t.IsZero() {
				if d, ok := ParseDate(t.UTC().Format(events.DateLayout)); ok {
					return d
				}
			}
		}
		s, usable := text(v)
		if !usable {
			r.flag(string(FieldDate))
			continue
		}
		if Unresolved(s) {
			continue
		}
		if d, ok := ParseDate(s); ok {
			return d
		}
		r.flag(string(FieldDate))
		return events.UnknownDate
	}
	return events.UnknownDate
}
