// Package sqlite implements the company repository on an embedded SQLite
// database. It backs the "sqlite" storage driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

//go:embed schema.sql
var schema string

// CompanyRepository persists companies in SQLite.
type CompanyRepository struct {
	db *sql.DB
}

// Open opens the database at path and applies the schema.
func Open(ctx context.Context, path string) (*CompanyRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &CompanyRepository{db: db}, nil
}

// Close closes the database handle.
func (r *CompanyRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO companies (company_id, name, name_key, code, active, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID().String(),
		c.Name().String(),
		strings.ToLower(c.Name().String()),
		c.Code().String(),
		c.IsActive(),
		c.Version(),
		toMillis(c.CreatedAt()),
		toMillis(c.UpdatedAt()),
	)
	return mapError(err, "insert company")
}

func (r *CompanyRepository) Save(ctx context.Context, c *company.Company) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE companies
		 SET name = ?, name_key = ?, code = ?, active = ?, version = ?, updated_at = ?
		 WHERE company_id = ?`,
		c.Name().String(),
		strings.ToLower(c.Name().String()),
		c.Code().String(),
		c.IsActive(),
		c.Version(),
		toMillis(c.UpdatedAt()),
		c.ID().String(),
	)
	if err != nil {
		return mapError(err, "update company")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if affected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const selectColumns = `SELECT company_id, name, code, active, version, created_at, updated_at FROM companies`

func (r *CompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx, selectColumns+` WHERE company_id = ?`, id.String()))
}

func (r *CompanyRepository) FindByCode(ctx context.Context, code company.Code) (*company.Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx, selectColumns+` WHERE code = ?`, code.String()))
}

func (r *CompanyRepository) ExistsWithCode(ctx context.Context, code company.Code) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE code = ?)`, code.String())
}

func (r *CompanyRepository) ExistsWithName(ctx context.Context, name company.Name) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM companies WHERE name_key = ?)`, strings.ToLower(name.String()))
}

func (r *CompanyRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("query company existence: %w", err)
	}
	return found, nil
}

// List returns companies ordered by code.
func (r *CompanyRepository) List(ctx context.Context, offset, limit int) ([]*company.Company, error) {
	if limit <= 0 {
		return []*company.Company{}, nil
	}

	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY code LIMIT ? OFFSET ?`, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	out := make([]*company.Company, 0, limit)
	for rows.Next() {
		c, scanErr := scanCompany(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

func (r *CompanyRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*company.Company, error) {
	var (
		rawID, name, code    string
		active               bool
		version              int
		createdAt, updatedAt int64
	)
	if err := row.Scan(&rawID, &name, &code, &active, &version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}

	id, err := uuid.ParseUUID(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid company_id %q: %w", rawID, err)
	}
	return company.Reconstruct(id, name, code, active, fromMillis(createdAt), fromMillis(updatedAt), version), nil
}

func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ company.Repository = (*CompanyRepository)(nil)
