package caselaw

import "strings"

// Category classifies a case by its issuing body or tax domain.
type Category string

const (
	CategoryITAT          Category = "ITAT"
	CategoryGST           Category = "GST"
	CategoryIncomeTax     Category = "INCOME_TAX"
	CategoryHighCourt     Category = "HIGH_COURT"
	CategorySupremeCourt  Category = "SUPREME_COURT"
	CategoryTribunalCourt Category = "TRIBUNAL_COURT"
	CategoryOther         Category = "OTHER"
)

// Categories lists every valid category in derivation priority order.
var Categories = []Category{
	CategoryITAT,
	CategoryGST,
	CategoryIncomeTax,
	CategoryHighCourt,
	CategorySupremeCourt,
	CategoryTribunalCourt,
	CategoryOther,
}

func (c Category) String() string { return string(c) }

// Valid reports whether c is one of the fixed category values.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory converts a string into a Category, accepting any case.
// Returns CategoryOther and false for unknown values.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if c.Valid() {
		return c, true
	}
	return CategoryOther, false
}

// categoryRule binds a keyword set to the category it implies.  Rules are
// evaluated in slice order and the first keyword hit wins, so a docsource
// like "ITAT and High Court of Delhi" resolves to ITAT, never HIGH_COURT.
type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules is the fixed derivation priority:
// ITAT > GST > INCOME_TAX > HIGH_COURT > SUPREME_COURT > TRIBUNAL_COURT.
// CESTAT matters decide customs/excise/service-tax disputes, which this
// practice files under the GST umbrella.
var categoryRules = []categoryRule{
	{CategoryITAT, []string{"itat", "income tax appellate tribunal"}},
	{CategoryGST, []string{"gst", "goods and services tax", "cestat", "central excise", "customs"}},
	{CategoryIncomeTax, []string{"income tax", "income-tax"}},
	{CategoryHighCourt, []string{"high court"}},
	{CategorySupremeCourt, []string{"supreme court"}},
	{CategoryTribunalCourt, []string{"tribunal"}},
}

// DeriveCategory maps a provider docsource string to a Category using
// case-insensitive substring matching over the ordered rule list.  Sources
// matching no rule fall through to OTHER.
func DeriveCategory(docsource string) Category {
	src := strings.ToLower(docsource)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(src, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
