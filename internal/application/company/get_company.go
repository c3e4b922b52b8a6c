package company

import (
	"context"
	"errors"

	"github.com/lllypuk/corebus/internal/application/appcore"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// GetCompanyHandler answers GetCompanyQuery
type GetCompanyHandler struct {
	repo companydomain.Repository
}

// NewGetCompanyHandler creates a new GetCompanyHandler
func NewGetCompanyHandler(repo companydomain.Repository) *GetCompanyHandler {
	return &GetCompanyHandler{repo: repo}
}

// Handle loads the company
func (h *GetCompanyHandler) Handle(ctx context.Context, q GetCompanyQuery) result.Result[*companydomain.Company] {
	if err := appcore.ValidateUUID("companyID", q.CompanyID); err != nil {
		return result.Fail[*companydomain.Company](err)
	}
	return result.Of(loadCompany(ctx, h.repo, q.CompanyID))
}

// FindCompanyByCodeHandler answers FindCompanyByCodeQuery
type FindCompanyByCodeHandler struct {
	repo companydomain.Repository
}

// NewFindCompanyByCodeHandler creates a new FindCompanyByCodeHandler
func NewFindCompanyByCodeHandler(repo companydomain.Repository) *FindCompanyByCodeHandler {
	return &FindCompanyByCodeHandler{repo: repo}
}

// Handle normalises the code the same way creation does, then looks it up.
func (h *FindCompanyByCodeHandler) Handle(
	ctx context.Context,
	q FindCompanyByCodeQuery,
) result.Result[*companydomain.Company] {
	lookup := func(code companydomain.Code) result.Result[*companydomain.Company] {
		c, err := h.repo.FindByCode(ctx, code)
		if errors.Is(err, errs.ErrNotFound) {
			return result.Fail[*companydomain.Company](errs.NewNotFoundError(resourceCompany, code.String()))
		}
		if err != nil {
			return result.Fail[*companydomain.Company](unexpected("failed to find company by code", err))
		}
		return result.Ok(c)
	}
	return result.FlatMap(companydomain.NewCode(q.Code), lookup)
}
