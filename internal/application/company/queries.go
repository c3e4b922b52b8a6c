package company

import (
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// GetCompanyQuery loads a company by ID.
type GetCompanyQuery struct {
	CompanyID uuid.UUID
}

// QueryName возвращает имя запроса
func (q GetCompanyQuery) QueryName() string { return "GetCompany" }

// FindCompanyByCodeQuery loads a company by its code.
type FindCompanyByCodeQuery struct {
	Code string
}

// QueryName возвращает имя запроса
func (q FindCompanyByCodeQuery) QueryName() string { return "FindCompanyByCode" }

// ListCompaniesQuery pages through companies ordered by code. A zero Limit
// means the default page size.
type ListCompaniesQuery struct {
	Offset int
	Limit  int
}

// QueryName возвращает имя запроса
func (q ListCompaniesQuery) QueryName() string { return "ListCompanies" }

// ListResult is one page of companies.
type ListResult struct {
	Companies []*companydomain.Company
	Total     int
	Offset    int
	Limit     int
}

// HasMore reports whether another page follows this one.
func (r ListResult) HasMore() bool {
	return r.Offset+len(r.Companies) < r.Total
}
