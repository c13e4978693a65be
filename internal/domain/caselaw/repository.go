package caselaw

import "context"

// UpsertOutcome reports whether an upsert inserted a new row or refreshed an
// existing one.
type UpsertOutcome int

const (
	OutcomeCreated UpsertOutcome = iota
	OutcomeUpdated
)

// QueryFilter narrows the browse/search read path.  Year is matched as a
// substring of the stored publish-date text, not as a structured date range;
// SearchText is matched case-insensitively against title, headline and
// docsource.
type QueryFilter struct {
	Category   Category
	Year       string
	TaxSection TaxSection
	SearchText string
}

// Page is a limit/offset pagination request with a sort column from a fixed
// whitelist.
type Page struct {
	Number    int
	Limit     int
	SortBy    string // "publishdate" | "title" | "numcitedby" | "updated_at"
	SortOrder string // "asc" | "desc"
}

// QueryResult is one page of summaries plus the unpaginated match count.
type QueryResult struct {
	Records []CaseSummary
	Total   int64
}

// Statistics is the aggregate-count read model behind the dashboard header.
type Statistics struct {
	CategoryCounts []CategoryCount
	Total          int64
}

// Repository is the persistence contract for case-law records.  Upserts are
// idempotent on TID: re-running a sync pass over unchanged provider data
// leaves row counts unchanged.
type Repository interface {
	// UpsertSummary inserts the summary or overwrites every mutable field of
	// the existing row with the same TID.
	UpsertSummary(ctx context.Context, s *CaseSummary) (UpsertOutcome, error)

	// UpsertDetail inserts or overwrites the detail row for a TID.  It fails
	// with ErrCodeCaseDetailOrphaned when no summary exists for the TID.
	UpsertDetail(ctx context.Context, d *CaseDetail) (UpsertOutcome, error)

	// GetByTID returns the summary for a TID, or a CASE_001 error when absent.
	GetByTID(ctx context.Context, tid int64) (*CaseSummary, error)

	// GetDetail returns the detail for a TID, or a CASE_001 error when absent.
	GetDetail(ctx context.Context, tid int64) (*CaseDetail, error)

	// Query runs the filtered, sorted, paginated browse path.
	Query(ctx context.Context, f QueryFilter, p Page) (*QueryResult, error)

	// CountByCategory returns per-category row counts, optionally narrowed by
	// the same substring year semantics as Query.
	CountByCategory(ctx context.Context, year string) ([]CategoryCount, error)

	// TotalCount returns the total number of summaries, optionally narrowed
	// by year.
	TotalCount(ctx context.Context, year string) (int64, error)
}
