// Package repositories provides the PostgreSQL-backed implementation of the
// case-law domain repository.  Every method accepts a context.Context and
// uses parameterised queries exclusively.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taxdesk/caselaw-intelligence/internal/domain/caselaw"
	"github.com/taxdesk/caselaw-intelligence/internal/infrastructure/monitoring/logging"
	appErrors "github.com/taxdesk/caselaw-intelligence/pkg/errors"
)

// Querier is the subset of pgxpool.Pool the repository needs.  Narrowing the
// dependency keeps the repository testable against a stub.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CaseLawRepository implements caselaw.Repository on top of pgx.
type CaseLawRepository struct {
	pool   Querier
	logger logging.Logger
}

// NewCaseLawRepository constructs a ready-to-use repository.  pool is
// normally a *pgxpool.Pool.
func NewCaseLawRepository(pool Querier, logger logging.Logger) *CaseLawRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CaseLawRepository{pool: pool, logger: logger}
}

const upsertSummarySQL = `
INSERT INTO case_laws
    (tid, title, headline, docsource, publishdate, docsize, numcitedby,
     category, tax_section, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (tid) DO UPDATE SET
    title       = EXCLUDED.title,
    headline    = EXCLUDED.headline,
    docsource   = EXCLUDED.docsource,
    publishdate = EXCLUDED.publishdate,
    docsize     = EXCLUDED.docsize,
    numcitedby  = EXCLUDED.numcitedby,
    category    = EXCLUDED.category,
    tax_section = COALESCE(EXCLUDED.tax_section, case_laws.tax_section),
    updated_at  = now()
RETURNING (xmax = 0) AS inserted`

// UpsertSummary inserts the summary or overwrites all mutable fields of the
// existing row keyed by tid.  The xmax system column distinguishes a fresh
// insert from a conflict update so sync runs can report created vs updated.
func (r *CaseLawRepository) UpsertSummary(ctx context.Context, s *caselaw.CaseSummary) (caselaw.UpsertOutcome, error) {
	if s == nil || s.TID <= 0 {
		return 0, appErrors.New(appErrors.ErrCodeCaseInvalidTID, "summary requires a positive tid")
	}

	r.logger.Debug("upsert case summary", logging.Int64("tid", s.TID), logging.String("category", s.Category.String()))

	var inserted bool
	err := r.pool.QueryRow(ctx, upsertSummarySQL,
		s.TID, s.Title, s.Headline, s.DocSource, s.PublishDate,
		s.DocSize, s.NumCitedBy, string(s.Category), nullableSection(s.TaxSection),
	).Scan(&inserted)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.CodeDBQueryError,
			fmt.Sprintf("failed to upsert case summary tid=%d", s.TID))
	}

	if inserted {
		return caselaw.OutcomeCreated, nil
	}
	return caselaw.OutcomeUpdated, nil
}

const upsertDetailSQL = `
INSERT INTO case_details
    (tid, doc, numcites, numcitedby, citetid, divtype, courtcopy, agreement,
     query_alert, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
ON CONFLICT (tid) DO UPDATE SET
    doc         = EXCLUDED.doc,
    numcites    = EXCLUDED.numcites,
    numcitedby  = EXCLUDED.numcitedby,
    citetid     = EXCLUDED.citetid,
    divtype     = EXCLUDED.divtype,
    courtcopy   = EXCLUDED.courtcopy,
    agreement   = EXCLUDED.agreement,
    query_alert = EXCLUDED.query_alert,
    updated_at  = now()
RETURNING (xmax = 0) AS inserted`

// UpsertDetail inserts or overwrites the detail row for a tid.  The summary
// row must already exist; the schema enforces this with a foreign key, and
// the explicit guard here turns the violation into a typed domain error
// before the write is attempted.
func (r *CaseLawRepository) UpsertDetail(ctx context.Context, d *caselaw.CaseDetail) (caselaw.UpsertOutcome, error) {
	if d == nil || d.TID <= 0 {
		return 0, appErrors.New(appErrors.ErrCodeCaseInvalidTID, "detail requires a positive tid")
	}

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM case_laws WHERE tid = $1)`, d.TID,
	).Scan(&exists)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.CodeDBQueryError,
			fmt.Sprintf("failed to check summary existence for tid=%d", d.TID))
	}
	if !exists {
		return 0, appErrors.New(appErrors.ErrCodeCaseDetailOrphaned,
			fmt.Sprintf("no case summary exists for tid=%d", d.TID))
	}

	var inserted bool
	err = r.pool.QueryRow(ctx, upsertDetailSQL,
		d.TID, d.Doc, d.NumCites, d.NumCitedBy, d.CiteTID,
		d.DivType, d.CourtCopy, d.Agreement, d.QueryAlert,
	).Scan(&inserted)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.CodeDBQueryError,
			fmt.Sprintf("failed to upsert case detail tid=%d", d.TID))
	}

	if inserted {
		return caselaw.OutcomeCreated, nil
	}
	return caselaw.OutcomeUpdated, nil
}

const summaryColumns = `tid, title, headline, docsource, publishdate, docsize,
	numcitedby, category, tax_section, created_at, updated_at`

// GetByTID returns the summary for a tid.
func (r *CaseLawRepository) GetByTID(ctx context.Context, tid int64) (*caselaw.CaseSummary, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM case_laws WHERE tid = $1`, tid)

	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeCaseNotFound,
				fmt.Sprintf("case law tid=%d not found", tid))
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError,
			fmt.Sprintf("failed to load case summary tid=%d", tid))
	}
	return s, nil
}

// GetDetail returns the detail row for a tid.
func (r *CaseLawRepository) GetDetail(ctx context.Context, tid int64) (*caselaw.CaseDetail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT tid, doc, numcites, numcitedby, citetid, divtype, courtcopy,
		       agreement, query_alert, created_at, updated_at
		FROM case_details WHERE tid = $1`, tid)

	var d caselaw.CaseDetail
	err := row.Scan(&d.TID, &d.Doc, &d.NumCites, &d.NumCitedBy, &d.CiteTID,
		&d.DivType, &d.CourtCopy, &d.Agreement, &d.QueryAlert,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.New(appErrors.ErrCodeCaseNotFound,
				fmt.Sprintf("case detail tid=%d not found", tid))
		}
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError,
			fmt.Sprintf("failed to load case detail tid=%d", tid))
	}
	return &d, nil
}

// Query runs the filtered browse path: dynamic WHERE, whitelisted sort,
// limit/offset pagination, and a separate unpaginated count.
func (r *CaseLawRepository) Query(ctx context.Context, f caselaw.QueryFilter, p caselaw.Page) (*caselaw.QueryResult, error) {
	where, args := buildWhere(f)
	r.logger.Debug("query case laws",
		logging.String("category", f.Category.String()),
		logging.String("year", f.Year),
		logging.Int("page", p.Number))

	var total int64
	countSQL := `SELECT COUNT(*) FROM case_laws` + where
	if err := r.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count case laws")
	}

	limit, offset := normalizePage(p)
	querySQL := fmt.Sprintf(
		`SELECT `+summaryColumns+` FROM case_laws%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderClause(p), len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, querySQL, append(args, limit, offset)...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to query case laws")
	}
	defer rows.Close()

	records := make([]caselaw.CaseSummary, 0, limit)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan case summary")
		}
		records = append(records, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to read case law rows")
	}

	return &caselaw.QueryResult{Records: records, Total: total}, nil
}

// CountByCategory returns per-category row counts, optionally narrowed by the
// same substring year match as Query.
func (r *CaseLawRepository) CountByCategory(ctx context.Context, year string) ([]caselaw.CategoryCount, error) {
	sqlText := `SELECT category, COUNT(*) FROM case_laws`
	var args []any
	if year != "" {
		sqlText += ` WHERE publishdate LIKE '%' || $1 || '%'`
		args = append(args, year)
	}
	sqlText += ` GROUP BY category ORDER BY category`

	rows, err := r.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count by category")
	}
	defer rows.Close()

	var counts []caselaw.CategoryCount
	for rows.Next() {
		var cc caselaw.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to scan category count")
		}
		counts = append(counts, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to read category counts")
	}
	return counts, nil
}

// TotalCount returns the total number of summaries, optionally narrowed by
// year.
func (r *CaseLawRepository) TotalCount(ctx context.Context, year string) (int64, error) {
	sqlText := `SELECT COUNT(*) FROM case_laws`
	var args []any
	if year != "" {
		sqlText += ` WHERE publishdate LIKE '%' || $1 || '%'`
		args = append(args, year)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, sqlText, args...).Scan(&total); err != nil {
		return 0, appErrors.Wrap(err, appErrors.CodeDBQueryError, "failed to count case laws")
	}
	return total, nil
}

// buildWhere assembles the dynamic WHERE clause for Query.  Year filtering is
// a substring match against the stored publishdate text; the provider's date
// strings are not structured dates.
func buildWhere(f caselaw.QueryFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Category != "" {
		args = append(args, string(f.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Year != "" {
		args = append(args, f.Year)
		conds = append(conds, fmt.Sprintf("publishdate LIKE '%%' || $%d || '%%'", len(args)))
	}
	if f.TaxSection != "" {
		args = append(args, string(f.TaxSection))
		conds = append(conds, fmt.Sprintf("tax_section = $%d", len(args)))
	}
	if f.SearchText != "" {
		args = append(args, f.SearchText)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR headline ILIKE '%%' || $%d || '%%' OR docsource ILIKE '%%' || $%d || '%%')",
			n, n, n))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// sortColumns is the whitelist of sortable columns; anything else falls back
// to updated_at.
var sortColumns = map[string]string{
	"publishdate": "publishdate",
	"title":       "title",
	"numcitedby":  "numcitedby",
	"updated_at":  "updated_at",
}

func orderClause(p caselaw.Page) string {
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = "updated_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.SortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

func normalizePage(p caselaw.Page) (limit, offset int) {
	limit = p.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := p.Number
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func nullableSection(ts caselaw.TaxSection) any {
	if ts == "" {
		return nil
	}
	return string(ts)
}

// scanSummary maps one row onto a CaseSummary, handling the nullable
// tax_section column.
func scanSummary(row pgx.Row) (*caselaw.CaseSummary, error) {
	var s caselaw.CaseSummary
	var section sql.NullString
	err := row.Scan(&s.TID, &s.Title, &s.Headline, &s.DocSource, &s.PublishDate,
		&s.DocSize, &s.NumCitedBy, &s.Category, &section, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if section.Valid {
		s.TaxSection = caselaw.TaxSection(section.String)
	}
	return &s, nil
}
