package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/eventmap/pkg/errors"
)

// Field is a canonical event field a mapping can populate.
type Field string

// Canonical fields.
const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldDate         Field = "date"
	FieldType         Field = "event_type"
	FieldCounterparty Field = "counterparty"
	FieldAmount       Field = "amount"
	FieldSource       Field = "source"
	FieldURL          Field = "url"
	FieldConfidence   Field = "confidence"
)

// Fields lists every canonical field.
var Fields = []Field{
	FieldTitle,
	FieldDescription,
	FieldDate,
	FieldType,
	FieldCounterparty,
	FieldAmount,
	FieldSource,
	FieldURL,
	FieldConfidence,
}

// Mapping declares, per canonical field, the raw keys a producer may use for
// it, in priority order. Keys listed in Ignored are known to the producer
// but carry nothing the canonical record holds. Any other key in a record is
// reported as schema drift.
type Mapping struct {
	Keys    map[Field][]string `json:"keys" yaml:"keys"`
	Ignored []string           `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

// DefaultMapping covers the field spellings used by the bundled adapters
// and by hand-written input files.
func DefaultMapping() Mapping {
	return Mapping{
		Keys: map[Field][]string{
			FieldTitle:        {"title", "event_name", "headline", "description"},
			FieldDescription:  {"description", "summary", "title", "event_name"},
			FieldDate:         {"date", "date_announced", "announced_date", "published_date"},
			FieldType:         {"type", "event_type"},
			FieldCounterparty: {"counterparty", "other_party", "counter_party", "other_counterparty", "other_counterparties"},
			FieldAmount:       {"amount", "investment", "value", "investment_value"},
			FieldSource:       {"source", "publisher"},
			FieldURL:          {"url", "link"},
			FieldConfidence:   {"confidence"},
		},
		Ignored: []string{
			"advisors",
			"enterprise_value",
			"counterparty_status",
			"year",
			"id",
			"symbol",
			"company",
		},
	}
}

// Validate checks the mapping for empty keys, unknown fields, and a raw key
// that is the first choice for two different fields.
func (m Mapping) Validate() error {
	if len(m.Keys) == 0 {
		return errors.NewValidationError("keys", nil, "mapping declares no fields")
	}

	known := make(map[Field]bool, len(Fields))
	for _, f := range Fields {
		known[f] = true
	}

	primary := make(map[string]Field)
	for _, f := range sortedFields(m.Keys) {
		keys := m.Keys[f]
		if !known[f] {
			return errors.NewValidationError(string(f), keys, "unknown canonical field")
		}
		if len(keys) == 0 {
			return errors.NewValidationError(string(f), keys, "no raw keys declared")
		}
		for _, k := range keys {
			if keyOf(k) == "" {
				return errors.NewValidationError(string(f), keys, "empty raw key")
			}
		}
		first := keyOf(keys[0])
		if other, ok := primary[first]; ok {
			return errors.NewValidationError(string(f), first,
				fmt.Sprintf("raw key %q is already the primary key of %s", first, other))
		}
		primary[first] = f
	}

	for _, k := range m.Ignored {
		if keyOf(k) == "" {
			return errors.NewValidationError("ignored", m.Ignored, "empty raw key")
		}
	}
	return nil
}

// compiled is a validated mapping with normalized keys.
type compiled struct {
	keys     map[Field][]string
	declared map[string]bool
}

func compile(m Mapping) (*compiled, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	c := &compiled{
		keys:     make(map[Field][]string, len(m.Keys)),
		declared: make(map[string]bool),
	}
	for f, keys := range m.Keys {
		for _, k := range keys {
			k = keyOf(k)
			c.keys[f] = append(c.keys[f], k)
			c.declared[k] = true
		}
	}
	for _, k := range m.Ignored {
		c.declared[keyOf(k)] = true
	}
	return c, nil
}

// keyOf normalizes a raw key: "Other Counterparty" and "other-counterparty"
// both become "other_counterparty".
func keyOf(k string) string {
	parts := strings.FieldsFunc(strings.ToLower(k), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(parts, "_")
}

func sortedFields(m map[Field][]string) []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
