// Package mocks provides hand-written test doubles shared by package tests.
package mocks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// MockCompanyRepository реализует company.Repository для тестирования.
// Each method counts its calls and can be made to fail or panic.
type MockCompanyRepository struct {
	mu        sync.RWMutex
	companies map[uuid.UUID]*company.Company
	calls     map[string]int
	errors    map[string]error
	panics    map[string]any
}

// NewMockCompanyRepository создает новый mock репозиторий
func NewMockCompanyRepository() *MockCompanyRepository {
	return &MockCompanyRepository{
		companies: make(map[uuid.UUID]*company.Company),
		calls:     make(map[string]int),
		errors:    make(map[string]error),
		panics:    make(map[string]any),
	}
}

// FailOn makes method return err from now on.
func (r *MockCompanyRepository) FailOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[method] = err
}

// PanicOn makes method panic with value from now on.
func (r *MockCompanyRepository) PanicOn(method string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics[method] = value
}

// Seed stores companies without counting calls.
func (r *MockCompanyRepository) Seed(companies ...*company.Company) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range companies {
		r.companies[c.ID()] = c
	}
}

// Calls returns how many times method was invoked.
func (r *MockCompanyRepository) Calls(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (r *MockCompanyRepository) TotalCalls() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

// Len returns the number of stored companies.
func (r *MockCompanyRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.companies)
}

// enter records the call and applies injected failures. Callers must hold mu.
func (r *MockCompanyRepository) enter(method string) error {
	r.calls[method]++
	if value, ok := r.panics[method]; ok {
		panic(value)
	}
	return r.errors[method]
}

func (r *MockCompanyRepository) Create(_ context.Context, c *company.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("Create"); err != nil {
		return err
	}
	if _, exists := r.companies[c.ID()]; exists {
		return errs.ErrAlreadyExists
	}
	r.companies[c.ID()] = c
	return nil
}

func (r *MockCompanyRepository) Save(_ context.Context, c *company.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("Save"); err != nil {
		return err
	}
	if _, exists := r.companies[c.ID()]; !exists {
		return errs.ErrNotFound
	}
	r.companies[c.ID()] = c
	return nil
}

func (r *MockCompanyRepository) FindByID(_ context.Context, id uuid.UUID) (*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("FindByID"); err != nil {
		return nil, err
	}
	c, ok := r.companies[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return c, nil
}

func (r *MockCompanyRepository) FindByCode(_ context.Context, code company.Code) (*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("FindByCode"); err != nil {
		return nil, err
	}
	for _, c := range r.companies {
		if c.Code() == code {
			return c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *MockCompanyRepository) ExistsWithCode(_ context.Context, code company.Code) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("ExistsWithCode"); err != nil {
		return false, err
	}
	for _, c := range r.companies {
		if c.Code() == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockCompanyRepository) ExistsWithName(_ context.Context, name company.Name) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("ExistsWithName"); err != nil {
		return false, err
	}
	for _, c := range r.companies {
		if c.Name().Equals(name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockCompanyRepository) List(_ context.Context, offset, limit int) ([]*company.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("List"); err != nil {
		return nil, err
	}

	all := make([]*company.Company, 0, len(r.companies))
	for _, c := range r.companies {
		all = append(all, c)
	}
	slices.SortFunc(all, func(a, b *company.Company) int {
		return strings.Compare(a.Code().String(), b.Code().String())
	})

	if offset >= len(all) {
		return []*company.Company{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (r *MockCompanyRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("Count"); err != nil {
		return 0, err
	}
	return len(r.companies), nil
}

var _ company.Repository = (*MockCompanyRepository)(nil)
