package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"taxdesk/internal/domain"
	"taxdesk/internal/port"
)

const filingColumns = `tf.id, tf.user_id, tf.tax_year, tf.filing_type, tf.status, tf.taxable_income, tf.tax_payable,
	tf.remarks, tf.admin_notes, tf.reviewed_by, tf.review_started_at, tf.completed_at, tf.rejected_at,
	tf.status_history, tf.created_at, tf.updated_at`

const filingViewSelect = `SELECT ` + filingColumns + `,
	COALESCE(u.full_name, '') AS user_name, COALESCE(u.email, '') AS user_email, COALESCE(u.cnic, '') AS user_cnic
FROM tax_filings tf
LEFT JOIN users u ON u.id = tf.user_id`

type taxFilingRepo struct {
	db *sqlx.DB
}

// NewTaxFilingRepo creates a new PostgreSQL-backed TaxFilingRepository.
func NewTaxFilingRepo(db *sqlx.DB) port.TaxFilingRepository {
	return &taxFilingRepo{db: db}
}

// buildFilingWhereClause constructs a dynamic WHERE clause for tax_filings queries.
// It returns the clause string (starting with "WHERE") and the positional arguments.
func buildFilingWhereClause(filters *domain.TaxFilingFilters) (clause string, args []interface{}) {
	clause = "WHERE 1=1"
	argN := 1

	if filters.Status != "" {
		clause += fmt.Sprintf(" AND tf.status = $%d", argN)
		args = append(args, filters.Status)
		argN++
	}
	if filters.FilingType != "" {
		clause += fmt.Sprintf(" AND tf.filing_type = $%d", argN)
		args = append(args, filters.FilingType)
		argN++
	}
	if filters.TaxYear != "" {
		clause += fmt.Sprintf(" AND tf.tax_year = $%d", argN)
		args = append(args, filters.TaxYear)
		argN++
	}
	if filters.Search != "" {
		clause += fmt.Sprintf(" AND (u.full_name ILIKE $%d OR u.email ILIKE $%d OR u.cnic ILIKE $%d)", argN, argN, argN)
		args = append(args, "%"+escapeLike(filters.Search)+"%")
		argN++
	}
	if filters.DateFrom != nil {
		clause += fmt.Sprintf(" AND tf.created_at >= $%d", argN)
		args = append(args, *filters.DateFrom)
		argN++
	}
	if filters.DateTo != nil {
		// dateTo names a calendar day; include all of it.
		clause += fmt.Sprintf(" AND tf.created_at < $%d", argN)
		args = append(args, filters.DateTo.Add(24*time.Hour))
		argN++ //nolint:ineffassign // argN kept incremented for consistency
	}

	return clause, args
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

func orderClause(filters *domain.TaxFilingFilters) string {
	column, ok := domain.TaxFilingSortFields[filters.SortBy]
	if !ok {
		column = "tf.created_at"
	}
	direction := "ASC"
	if filters.SortDesc {
		direction = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, tf.id", column, direction)
}

func (r *taxFilingRepo) Create(ctx context.Context, filing *domain.TaxFiling) error {
	filing.ID = uuid.New()
	now := time.Now().UTC()
	filing.CreatedAt = now
	filing.UpdatedAt = now
	if filing.Status == "" {
		filing.Status = domain.FilingStatusPending
	}
	owner := filing.UserID
	filing.StatusHistory = domain.StatusHistory{{
		Status:    filing.Status,
		ChangedBy: &owner,
		ChangedAt: now,
		Remarks:   "filing submitted",
	}}

	query := `INSERT INTO tax_filings (id, user_id, tax_year, filing_type, status, taxable_income, tax_payable,
		remarks, admin_notes, status_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		filing.ID, filing.UserID, filing.TaxYear, filing.FilingType, filing.Status,
		filing.TaxableIncome, filing.TaxPayable, filing.Remarks, filing.AdminNotes,
		filing.StatusHistory, filing.CreatedAt, filing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("taxFilingRepo.Create: %w", err)
	}
	return nil
}

func (r *taxFilingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxFilingView, error) {
	var filing domain.TaxFilingView
	err := r.db.GetContext(ctx, &filing, filingViewSelect+" WHERE tf.id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaxFilingNotFound
		}
		return nil, fmt.Errorf("taxFilingRepo.GetByID: %w", err)
	}
	return &filing, nil
}

func (r *taxFilingRepo) ListByUser(ctx context.Context, userID uuid.UUID, taxYear string) ([]domain.TaxFilingView, error) {
	query := filingViewSelect + " WHERE tf.user_id = $1"
	args := []interface{}{userID}
	if taxYear != "" {
		query += " AND tf.tax_year = $2"
		args = append(args, taxYear)
	}
	query += " ORDER BY tf.created_at DESC"

	filings := []domain.TaxFilingView{}
	if err := r.db.SelectContext(ctx, &filings, query, args...); err != nil {
		return nil, fmt.Errorf("taxFilingRepo.ListByUser: %w", err)
	}
	return filings, nil
}

func (r *taxFilingRepo) List(ctx context.Context, filters *domain.TaxFilingFilters) ([]domain.TaxFilingView, int, error) {
	whereClause, args := buildFilingWhereClause(filters)

	var total int
	countQuery := "SELECT COUNT(*) FROM tax_filings tf LEFT JOIN users u ON u.id = tf.user_id " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("taxFilingRepo.List count: %w", err)
	}

	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * filters.Limit
	}
	dataQuery := fmt.Sprintf("%s %s %s OFFSET %d LIMIT %d",
		filingViewSelect, whereClause, orderClause(filters), offset, filters.Limit)

	filings := []domain.TaxFilingView{}
	if err := r.db.SelectContext(ctx, &filings, dataQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("taxFilingRepo.List: %w", err)
	}
	return filings, total, nil
}

type filingStatsRow struct {
	Total           int             `db:"total"`
	Pending         int             `db:"pending"`
	UnderReview     int             `db:"under_review"`
	Completed       int             `db:"completed"`
	Rejected        int             `db:"rejected"`
	TotalTaxPayable decimal.Decimal `db:"total_tax_payable"`
}

func (r *taxFilingRepo) Statistics(ctx context.Context, filters *domain.TaxFilingFilters) (*domain.TaxFilingStatistics, error) {
	whereClause, args := buildFilingWhereClause(filters)
	query := `SELECT
		COUNT(*) AS total,
		COUNT(CASE WHEN tf.status = 'pending' THEN 1 END) AS pending,
		COUNT(CASE WHEN tf.status = 'under_review' THEN 1 END) AS under_review,
		COUNT(CASE WHEN tf.status = 'completed' THEN 1 END) AS completed,
		COUNT(CASE WHEN tf.status = 'rejected' THEN 1 END) AS rejected,
		COALESCE(SUM(tf.tax_payable), 0) AS total_tax_payable
	FROM tax_filings tf
	LEFT JOIN users u ON u.id = tf.user_id ` + whereClause

	var row filingStatsRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("taxFilingRepo.Statistics: %w", err)
	}
	return &domain.TaxFilingStatistics{
		Total: row.Total,
		ByStatus: map[domain.FilingStatus]int{
			domain.FilingStatusPending:     row.Pending,
			domain.FilingStatusUnderReview: row.UnderReview,
			domain.FilingStatusCompleted:   row.Completed,
			domain.FilingStatusRejected:    row.Rejected,
		},
		TotalTaxPayable: row.TotalTaxPayable,
	}, nil
}

func (r *taxFilingRepo) TaxYears(ctx context.Context) ([]string, error) {
	years := []string{}
	if err := r.db.SelectContext(ctx, &years,
		"SELECT DISTINCT tax_year FROM tax_filings ORDER BY tax_year DESC"); err != nil {
		return nil, fmt.Errorf("taxFilingRepo.TaxYears: %w", err)
	}
	return years, nil
}

// statusSetClause builds the SET list of a status transition. The history
// entry is appended in the same statement as the status change.
func statusSetClause(u domain.FilingStatusUpdate) (clause string, args []interface{}) {
	status := string(u.Status)
	changedBy := u.ChangedBy.String()
	clause = `status = ?::text,
		remarks = CASE WHEN ?::text = '' THEN tf.remarks ELSE ?::text END,
		admin_notes = COALESCE(?::text, tf.admin_notes),
		reviewed_by = ?::uuid,
		review_started_at = CASE WHEN ?::text = 'under_review' THEN NOW() ELSE tf.review_started_at END,
		completed_at = CASE WHEN ?::text = 'completed' THEN NOW() ELSE tf.completed_at END,
		rejected_at = CASE WHEN ?::text = 'rejected' THEN NOW() ELSE tf.rejected_at END,
		status_history = tf.status_history || jsonb_build_array(jsonb_build_object(
			'status', ?::text, 'changedBy', ?::text, 'changedAt', NOW(), 'remarks', ?::text)),
		updated_at = NOW()`
	args = []interface{}{
		status,
		u.Remarks, u.Remarks,
		u.AdminNotes,
		changedBy,
		status, status, status,
		status, changedBy, u.Remarks,
	}
	return clause, args
}

func (r *taxFilingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, update domain.FilingStatusUpdate) (*domain.TaxFiling, error) {
	set, args := statusSetClause(update)
	query := "UPDATE tax_filings tf SET " + set + " WHERE tf.id = ? RETURNING " + filingColumns
	args = append(args, id)

	var filing domain.TaxFiling
	if err := r.db.GetContext(ctx, &filing, r.db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaxFilingNotFound
		}
		return nil, fmt.Errorf("taxFilingRepo.UpdateStatus: %w", err)
	}
	return &filing, nil
}

func (r *taxFilingRepo) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, update domain.FilingStatusUpdate) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	set, args := statusSetClause(update)
	args = append(args, ids)
	query, expanded, err := sqlx.In("UPDATE tax_filings tf SET "+set+" WHERE tf.id IN (?) RETURNING tf.id", args...)
	if err != nil {
		return nil, fmt.Errorf("taxFilingRepo.BulkUpdateStatus build: %w", err)
	}

	updated := []uuid.UUID{}
	if err := r.db.SelectContext(ctx, &updated, r.db.Rebind(query), expanded...); err != nil {
		return nil, fmt.Errorf("taxFilingRepo.BulkUpdateStatus: %w", err)
	}
	return updated, nil
}
