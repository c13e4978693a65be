// Package caselaw defines the core domain model of the service: case-law
// summaries and details mirrored from the external search provider, the
// category taxonomy they are filed under, and the repository contract the
// persistence layer implements.
package caselaw

import "time"

// CaseSummary is the listing-level record for one judgment or order.  TID is
// the provider's immutable document identifier and the sole upsert key; a
// summary is written once per sync pass and overwritten wholesale on
// subsequent passes (last write wins).
type CaseSummary struct {
	TID         int64      `json:"tid"`
	Title       string     `json:"title"`
	Headline    string     `json:"headline"`
	DocSource   string     `json:"docsource"`
	PublishDate string     `json:"publishdate"`
	DocSize     int        `json:"docsize"`
	NumCitedBy  int        `json:"numcitedby"`
	Category    Category   `json:"category"`
	TaxSection  TaxSection `json:"taxSection,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CaseDetail carries the full-document fields fetched separately per TID.
// At most one detail exists per summary and a detail is never stored without
// its summary.
type CaseDetail struct {
	TID        int64     `json:"tid"`
	Doc        string    `json:"doc"`
	NumCites   int       `json:"numcites"`
	NumCitedBy int       `json:"numcitedby"`
	CiteTID    string    `json:"citetid"`
	DivType    string    `json:"divtype"`
	CourtCopy  bool      `json:"courtcopy"`
	Agreement  bool      `json:"agreement"`
	QueryAlert string    `json:"queryAlert"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CategoryCount is one row of the statistics aggregate.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int64    `json:"count"`
}
