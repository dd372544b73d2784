// Package provenance records where each reconciled event came from and why
// it was graded the way it was.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/eventmap/pkg/errors"
)

// Fields tracked per event.
const (
	FieldOrigin     = "origin"     // the chain and provider that produced the event
	FieldConfidence = "confidence" // the tier and the marker behind it
	FieldDuplicate  = "duplicate"  // a record dropped in favor of this event
)

// Provenance is one recorded fact about an event.
type Provenance struct {
	Source    string    `yaml:"source"`             // fallback chain ID
	Provider  string    `yaml:"provider,omitempty"` // chain member that answered
	Field     string    `yaml:"field"`
	Value     any       `yaml:"value,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
	Reason    string    `yaml:"reason,omitempty"`
}

// Map tracks provenance for many events.
type Map map[string][]Provenance // key is "eventKey:field"

// Tracker manages provenance tracking during reconciliation.
type Tracker interface {
	// Track records provenance for a field of an event
	Track(eventKey string, field string, p Provenance)

	// FindByField retrieves provenance for one field of an event
	FindByField(eventKey string, field string) []Provenance

	// FindByEvent retrieves all provenance for an event
	FindByEvent(eventKey string) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	provenance Map
	enabled    bool
	now        func() time.Time
}

// NewTracker creates a new provenance tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return NewTrackerWithClock(enabled, time.Now)
}

// NewTrackerWithClock creates a tracker that stamps entries with now.
func NewTrackerWithClock(enabled bool, now func() time.Time) Tracker {
	if now == nil {
		now = time.Now
	}
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
		now:        now,
	}
}

// Track records provenance for a field.
func (p *tracker) Track(eventKey string, field string, history Provenance) {
	if !p.enabled {
		return
	}
	if history.Timestamp.IsZero() {
		history.Timestamp = p.now().UTC()
	}
	history.Field = field

	key := makeKey(eventKey, field)
	p.provenance[key] = append(p.provenance[key], history)
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(eventKey string, field string) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(eventKey, field)]
}

// FindByEvent retrieves all provenance for an event.
func (p *tracker) FindByEvent(eventKey string) map[string][]Provenance {
	if !p.enabled {
		return nil
	}

	result := make(map[string][]Provenance)
	prefix := eventKey + ":"
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found && !strings.Contains(field, ":") {
			result[field] = info
		}
	}
	return result
}

// Map returns a copy of the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}

	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.provenance = make(Map)
}

func makeKey(eventKey, field string) string {
	return eventKey + ":" + field
}

// splitKey separates "eventKey:field". Event keys may themselves contain
// colons, so the field is taken from the right.
func splitKey(key string) (eventKey, field string, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// String generates a human-readable provenance report, one block per event.
func (m Map) String() string {
	byEvent := make(map[string]map[string][]Provenance)
	for key, infos := range m {
		eventKey, field, ok := splitKey(key)
		if !ok {
			continue
		}
		if byEvent[eventKey] == nil {
			byEvent[eventKey] = make(map[string][]Provenance)
		}
		byEvent[eventKey][field] = infos
	}

	eventKeys := make([]string, 0, len(byEvent))
	for k := range byEvent {
		eventKeys = append(eventKeys, k)
	}
	sort.Strings(eventKeys)

	var sb strings.Builder
	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	for _, eventKey := range eventKeys {
		fields := byEvent[eventKey]
		sb.WriteString(eventKey)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		names := make([]string, 0, len(fields))
		for f := range fields {
			names = append(names, f)
		}
		sort.Strings(names)

		for _, f := range names {
			for _, info := range fields[f] {
				fmt.Fprintf(&sb, "  %s: %v (from %s", f, info.Value, info.Source)
				if info.Provider != "" {
					fmt.Fprintf(&sb, " via %s", info.Provider)
				}
				sb.WriteString(")")
				if info.Reason != "" {
					fmt.Fprintf(&sb, " %s", info.Reason)
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// File represents a provenance file stored on disk.
type File struct {
	Company    string `yaml:"company"`
	Provenance Map    `yaml:"provenance"`
}

// Save writes provenance data to a YAML file.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report file, not secret
		return errors.WrapIO("write", path, err)
	}
	return nil
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist.
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &f, nil
}
