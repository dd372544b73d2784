package events

import (
	"strings"

	"golang.org/x/text/cases"
)

// Type is the canonical event category.
type Type string

// Event categories.
const (
	TypeAcquisition    Type = "Acquisition"
	TypeMerger         Type = "Merger"
	TypeInvestment     Type = "Investment"
	TypeFunding        Type = "Funding"
	TypePartnership    Type = "Partnership"
	TypeJointVenture   Type = "Joint Venture"
	TypeDivestiture    Type = "Divestiture"
	TypeSpinOff        Type = "Spin-off"
	TypeIPO            Type = "IPO"
	TypeEquityOffering Type = "Equity Offering"
	TypeBondIssue      Type = "Bond Issue"
	TypeBuyback        Type = "Buyback"
	TypeOther          Type = "Other"
)

// Types lists every category in display order.
var Types = []Type{
	TypeAcquisition,
	TypeMerger,
	TypeInvestment,
	TypeFunding,
	TypePartnership,
	TypeJointVenture,
	TypeDivestiture,
	TypeSpinOff,
	TypeIPO,
	TypeEquityOffering,
	TypeBondIssue,
	TypeBuyback,
	TypeOther,
}

// synonyms maps folded spellings seen in source data to categories.
var synonyms = map[string]Type{
	"m&a":                     TypeMerger,
	"merger & acquisition":    TypeMerger,
	"mergers & acquisitions":  TypeMerger,
	"merger and acquisition":  TypeMerger,
	"acquisitions":            TypeAcquisition,
	"takeover":                TypeAcquisition,
	"stake acquisition":       TypeInvestment,
	"strategic investment":    TypeInvestment,
	"funding round":           TypeFunding,
	"fundraising":             TypeFunding,
	"collaboration":           TypePartnership,
	"strategic partnership":   TypePartnership,
	"alliance":                TypePartnership,
	"jv":                      TypeJointVenture,
	"divestment":              TypeDivestiture,
	"asset sale":              TypeDivestiture,
	"spinoff":                 TypeSpinOff,
	"spin off":                TypeSpinOff,
	"demerger":                TypeSpinOff,
	"initial public offering": TypeIPO,
	"listing":                 TypeIPO,
	"rights issue":            TypeEquityOffering,
	"share issue":             TypeEquityOffering,
	"qip":                     TypeEquityOffering,
	"bond issuance":           TypeBondIssue,
	"debt issue":              TypeBondIssue,
	"bonds":                   TypeBondIssue,
	"share buyback":           TypeBuyback,
	"stock buyback":           TypeBuyback,
	"repurchase":              TypeBuyback,
	"share repurchase":        TypeBuyback,
}

// byFold maps folded canonical names to categories.
var byFold = func() map[string]Type {
	m := make(map[string]Type, len(Types)+len(synonyms))
	for _, t := range Types {
		m[fold(string(t))] = t
	}
	for k, t := range synonyms {
		m[fold(k)] = t
	}
	return m
}()

// fold case-folds s. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// ParseType resolves a free-form type label to a category. The second
// return is false when the label did not match and Other was substituted.
func ParseType(s string) (Type, bool) {
	key := fold(strings.Join(strings.Fields(s), " "))
	if key == "" {
		return TypeOther, false
	}
	if t, ok := byFold[key]; ok {
		return t, true
	}
	return TypeOther, false
}

// String returns the category label.
func (t Type) String() string {
	return string(t)
}
