package company

import (
	"context"

	"github.com/lllypuk/corebus/internal/application/appcore"
	companydomain "github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/result"
)

// ListCompaniesHandler answers ListCompaniesQuery
type ListCompaniesHandler struct {
	repo companydomain.Repository
}

// NewListCompaniesHandler creates a new ListCompaniesHandler
func NewListCompaniesHandler(repo companydomain.Repository) *ListCompaniesHandler {
	return &ListCompaniesHandler{repo: repo}
}

// Handle returns one page of companies and the total count.
func (h *ListCompaniesHandler) Handle(ctx context.Context, q ListCompaniesQuery) result.Result[ListResult] {
	offset, limit, err := appcore.NormalizePage(q.Offset, q.Limit)
	if err != nil {
		return result.Fail[ListResult](err)
	}

	companies, err := h.repo.List(ctx, offset, limit)
	if err != nil {
		return result.Fail[ListResult](unexpected("failed to list companies", err))
	}

	total, err := h.repo.Count(ctx)
	if err != nil {
		return result.Fail[ListResult](unexpected("failed to count companies", err))
	}

	return result.Ok(ListResult{
		Companies: companies,
		Total:     total,
		Offset:    offset,
		Limit:     limit,
	})
}
