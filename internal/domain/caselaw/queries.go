package caselaw

import "strings"

// TaxSection tags a case with the statutory section a targeted sync ran for.
// It is only ever set by a section-targeted sync; broad syncs leave it empty.
type TaxSection string

const (
	Section7GST   TaxSection = "SECTION_7_GST"
	Section16GST  TaxSection = "SECTION_16_GST"
	Section74GST  TaxSection = "SECTION_74_GST"
	Section143IT  TaxSection = "SECTION_143_IT"
	Section148IT  TaxSection = "SECTION_148_IT"
	Section263IT  TaxSection = "SECTION_263_IT"
	SectionNone   TaxSection = ""
)

// sectionInfo binds a tax section to its parent category and the
// keyword-engineered provider query used when syncing that section.
type sectionInfo struct {
	category Category
	query    string
}

var taxSections = map[TaxSection]sectionInfo{
	Section7GST:  {CategoryGST, "(section 7 GST OR scope of supply)"},
	Section16GST: {CategoryGST, "(section 16 GST OR input tax credit)"},
	Section74GST: {CategoryGST, "(section 74 GST OR suppression of facts)"},
	Section143IT: {CategoryIncomeTax, "(section 143 income tax OR scrutiny assessment)"},
	Section148IT: {CategoryIncomeTax, "(section 148 income tax OR reassessment notice)"},
	Section263IT: {CategoryIncomeTax, "(section 263 income tax OR revision of assessment)"},
}

// ParseTaxSection converts a string into a TaxSection, accepting any case.
func ParseTaxSection(s string) (TaxSection, bool) {
	ts := TaxSection(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := taxSections[ts]; ok {
		return ts, true
	}
	return SectionNone, false
}

// Valid reports whether ts names a known section.
func (ts TaxSection) Valid() bool {
	_, ok := taxSections[ts]
	return ok
}

// Category returns the parent category of the section, or OTHER for unknown
// sections.
func (ts TaxSection) Category() Category {
	if info, ok := taxSections[ts]; ok {
		return info.category
	}
	return CategoryOther
}

// Query returns the provider query string for a section-targeted sync.
func (ts TaxSection) Query() (string, bool) {
	info, ok := taxSections[ts]
	return info.query, ok
}

// QueryTable is the immutable category-to-query mapping used by the sync
// orchestrator.  It is injected into the orchestrator so deployments can
// override individual entries through configuration.
type QueryTable struct {
	byCategory   map[Category]string
	defaultQuery string
}

// defaultCategoryQueries are the hand-built boolean keyword expressions sent
// to the provider per category.
var defaultCategoryQueries = map[Category]string{
	CategoryITAT:          "(ITAT OR income tax appellate tribunal)",
	CategoryGST:           "(GST OR goods and services tax OR central excise OR customs)",
	CategoryIncomeTax:     "(income tax act OR income-tax)",
	CategoryHighCourt:     "(high court tax appeal)",
	CategorySupremeCourt:  "(supreme court tax)",
	CategoryTribunalCourt: "(tax tribunal)",
}

// defaultBroadQuery covers "all categories" runs with no target.
const defaultBroadQuery = "(income tax OR GST OR goods and services tax)"

// NewQueryTable builds the query mapping from the built-in defaults with
// per-category overrides applied on top.  Override keys must be valid
// category names; unknown keys are ignored.  An empty defaultQuery keeps the
// built-in broad query.
func NewQueryTable(overrides map[string]string, defaultQuery string) *QueryTable {
	byCat := make(map[Category]string, len(defaultCategoryQueries))
	for c, q := range defaultCategoryQueries {
		byCat[c] = q
	}
	for name, q := range overrides {
		if c, ok := ParseCategory(name); ok && q != "" {
			byCat[c] = q
		}
	}
	if defaultQuery == "" {
		defaultQuery = defaultBroadQuery
	}
	return &QueryTable{byCategory: byCat, defaultQuery: defaultQuery}
}

// ForCategory returns the query string for a category, falling back to the
// broad default when the category has no entry (e.g. OTHER).
func (t *QueryTable) ForCategory(c Category) string {
	if q, ok := t.byCategory[c]; ok {
		return q
	}
	return t.defaultQuery
}

// Default returns the broad multi-category query.
func (t *QueryTable) Default() string {
	return t.defaultQuery
}
