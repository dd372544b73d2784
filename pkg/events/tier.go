package events

import "strings"

// Tier is the trust grade of an event's source.
type Tier string

// Trust tiers.
const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// Valid reports whether t is one of A, B, or C.
func (t Tier) Valid() bool {
	return t == TierA || t == TierB || t == TierC
}

// Verified reports whether the tier counts toward the verified total.
func (t Tier) Verified() bool {
	return t == TierA
}

// String returns the tier letter.
func (t Tier) String() string {
	return string(t)
}

// ParseTier reads a tier letter or the High/Medium/Low grades emitted by
// some extractors. It returns "" when s carries no usable grade.
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "high":
		return TierA
	case "b", "medium":
		return TierB
	case "c", "low":
		return TierC
	default:
		return ""
	}
}
