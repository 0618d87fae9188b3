package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	calendar "parking-cloud/internal/calendar/domain"
)

const defaultHolidaysTable = "holidays"

// HolidayRepository is a Postgres implementation for holidays.
type HolidayRepository struct {
	db    *sql.DB
	table string
}

// HolidayOption configures the repository.
type HolidayOption func(*HolidayRepository)

// WithHolidayTable overrides the default table name.
func WithHolidayTable(table string) HolidayOption {
	return func(repo *HolidayRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewHolidayRepository constructs a repository.
func NewHolidayRepository(db *sql.DB, opts ...HolidayOption) *HolidayRepository {
	repo := &HolidayRepository{db: db, table: defaultHolidaysTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListBetween returns holidays of a country between two dates, inclusive, ordered by date.
func (r *HolidayRepository) ListBetween(ctx context.Context, countryCode, from, to string) ([]calendar.Holiday, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("holiday repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT country_code, holiday_date, name
FROM %s
WHERE country_code = $1 AND holiday_date BETWEEN $2::date AND $3::date
ORDER BY holiday_date`, r.table)

	rows, err := r.db.QueryContext(ctx, query, countryCode, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var (
			h    calendar.Holiday
			date time.Time
		)
		if err := rows.Scan(&h.CountryCode, &date, &h.Name); err != nil {
			return nil, err
		}
		h.Date = date.Format(calendar.DateLayout)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// Upsert stores holidays in one transaction.
func (r *HolidayRepository) Upsert(ctx context.Context, holidays []calendar.Holiday) error {
	if r == nil || r.db == nil {
		return errors.New("holiday repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertHolidays(ctx, tx, r.table, holidays); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertHolidays(ctx context.Context, db DBTX, table string, holidays []calendar.Holiday) error {
	query := fmt.Sprintf(`
INSERT INTO %s (country_code, holiday_date, name)
VALUES ($1, $2::date, $3)
ON CONFLICT (country_code, holiday_date)
DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`, table)

	for _, h := range holidays {
		if _, err := db.ExecContext(ctx, query, h.CountryCode, h.Date, h.Name); err != nil {
			return fmt.Errorf("holiday repo: upsert %s %s: %w", h.CountryCode, h.Date, err)
		}
	}
	return nil
}
