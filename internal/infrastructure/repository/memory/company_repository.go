// Package memory implements the company repository in process memory.
// It backs the "memory" storage driver and is safe for concurrent use.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// record is a stored snapshot; aggregates are never shared with callers.
type record struct {
	id        uuid.UUID
	name      string
	code      string
	active    bool
	createdAt time.Time
	updatedAt time.Time
	version   int
}

func snapshot(c *company.Company) record {
	return record{
		id:        c.ID(),
		name:      c.Name().String(),
		code:      c.Code().String(),
		active:    c.IsActive(),
		createdAt: c.CreatedAt(),
		updatedAt: c.UpdatedAt(),
		version:   c.Version(),
	}
}

func (r record) restore() *company.Company {
	return company.Reconstruct(r.id, r.name, r.code, r.active, r.createdAt, r.updatedAt, r.version)
}

// CompanyRepository is an in-memory company.Repository.
type CompanyRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]record
}

// NewCompanyRepository creates an empty repository.
func NewCompanyRepository() *CompanyRepository {
	return &CompanyRepository{records: make(map[uuid.UUID]record)}
}

func (r *CompanyRepository) Create(_ context.Context, c *company.Company) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[c.ID()]; ok {
		return errs.ErrAlreadyExists
	}
	rec := snapshot(c)
	if r.conflicts(rec) {
		return errs.ErrAlreadyExists
	}
	r.records[rec.id] = rec
	return nil
}

func (r *CompanyRepository) Save(_ context.Context, c *company.Company) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[c.ID()]; !ok {
		return errs.ErrNotFound
	}
	rec := snapshot(c)
	if r.conflicts(rec) {
		return errs.ErrAlreadyExists
	}
	r.records[rec.id] = rec
	return nil
}

// conflicts reports whether another record shares rec's code or name.
// Caller must hold mu.
func (r *CompanyRepository) conflicts(rec record) bool {
	for id, other := range r.records {
		if id == rec.id {
			continue
		}
		if other.code == rec.code || strings.EqualFold(other.name, rec.name) {
			return true
		}
	}
	return false
}

func (r *CompanyRepository) FindByID(_ context.Context, id uuid.UUID) (*company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return rec.restore(), nil
}

func (r *CompanyRepository) FindByCode(_ context.Context, code company.Code) (*company.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.code == code.String() {
			return rec.restore(), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *CompanyRepository) ExistsWithCode(_ context.Context, code company.Code) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.code == code.String() {
			return true, nil
		}
	}
	return false, nil
}

func (r *CompanyRepository) ExistsWithName(_ context.Context, name company.Name) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if strings.EqualFold(rec.name, name.String()) {
			return true, nil
		}
	}
	return false, nil
}

// List returns companies ordered by code.
func (r *CompanyRepository) List(_ context.Context, offset, limit int) ([]*company.Company, error) {
	r.mu.RLock()
	recs := make([]record, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	slices.SortFunc(recs, func(a, b record) int { return strings.Compare(a.code, b.code) })

	offset = max(offset, 0)
	if offset >= len(recs) || limit <= 0 {
		return []*company.Company{}, nil
	}
	end := min(offset+limit, len(recs))

	out := make([]*company.Company, 0, end-offset)
	for _, rec := range recs[offset:end] {
		out = append(out, rec.restore())
	}
	return out, nil
}

func (r *CompanyRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records), nil
}

var _ company.Repository = (*CompanyRepository)(nil)
