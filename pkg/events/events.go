// Package events defines the canonical corporate-event record and the raw
// records the source adapters produce before normalization.
package events

// Sentinel values for fields that could not be resolved.
const (
	UnknownDate       = "Unknown"
	UnknownSource     = "Unknown"
	NoCounterparty    = "N/A"
	NoURL             = "N/A"
	UndisclosedAmount = "Undisclosed"
)

// DateLayout is the canonical date representation.
const DateLayout = "2006-01-02"

// Event is a canonical corporate action after normalization. Every field is
// always populated, either with a resolved value or with its sentinel.
type Event struct {
	Date         string `json:"date" yaml:"date"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	Type         Type   `json:"event_type" yaml:"event_type"`
	Counterparty string `json:"counterparty" yaml:"counterparty"`
	Amount       string `json:"amount" yaml:"amount"`
	Source       string `json:"source" yaml:"source"`
	URL          string `json:"url" yaml:"url"`
	Confidence   Tier   `json:"confidence" yaml:"confidence"`
}

// HasDate reports whether the event date was resolved.
func (e Event) HasDate() bool {
	return e.Date != "" && e.Date != UnknownDate
}

// Year returns the four-digit year of a resolved date, or "" for Unknown.
func (e Event) Year() string {
	if !e.HasDate() || len(e.Date) < 4 {
		return ""
	}
	return e.Date[:4]
}

// RawRecord is one item as emitted by a source adapter, before any
// interpretation. Producer selects the field mapping used to read it.
type RawRecord struct {
	Producer string
	Fields   map[string]any
}

// NewRawRecord creates a raw record for a producer.
func NewRawRecord(producer string, fields map[string]any) RawRecord {
	if fields == nil {
		fields = make(map[string]any)
	}
	return RawRecord{Producer: producer, Fields: fields}
}

// Get returns a field value.
func (r RawRecord) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Batch is the output of one source for one run.
type Batch struct {
	// Source is the logical source (fallback chain) ID.
	Source string
	// Provider is the chain member that produced the records.
	Provider string
	Records  []RawRecord
}
