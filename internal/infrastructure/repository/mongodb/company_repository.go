package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/lllypuk/corebus/internal/domain/company"
	"github.com/lllypuk/corebus/internal/domain/errs"
	"github.com/lllypuk/corebus/internal/domain/uuid"
)

// CompanyRepository implements company.Repository on a MongoDB collection.
// Uniqueness of code and name relies on the indexes from
// infrastructure/mongodb.GetCompanyIndexes.
type CompanyRepository struct {
	collection *mongo.Collection
	logger     *slog.Logger
}

// CompanyRepoOption configures CompanyRepository.
type CompanyRepoOption func(*CompanyRepository)

// WithCompanyRepoLogger sets the logger for the company repository.
func WithCompanyRepoLogger(logger *slog.Logger) CompanyRepoOption {
	return func(r *CompanyRepository) {
		r.logger = logger
	}
}

// NewCompanyRepository creates a repository over collection.
func NewCompanyRepository(collection *mongo.Collection, opts ...CompanyRepoOption) *CompanyRepository {
	r := &CompanyRepository{
		collection: collection,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type companyDocument struct {
	CompanyID string `bson:"company_id"`
	Name      string `bson:"name"`
	NameKey   string `bson:"name_key"`
	Code      string `bson:"code"`
	Active    bool   `bson:"active"`
	Version   int    `bson:"version"`

	BaseDocument `bson:",inline"`
}

// Create inserts c. A code or name collision yields errs.ErrAlreadyExists.
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	_, err := r.collection.InsertOne(ctx, companyToDocument(c))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		r.logger.ErrorContext(ctx, "failed to create company",
			slog.String("company_id", c.ID().String()),
			slog.String("code", c.Code().String()),
			slog.String("error", err.Error()),
		)
	}
	return HandleMongoError(err, "company")
}

// Save overwrites a stored company. It never inserts.
func (r *CompanyRepository) Save(ctx context.Context, c *company.Company) error {
	if c == nil || c.ID().IsZero() {
		return errs.ErrInvalidInput
	}

	doc := companyToDocument(c)
	filter := bson.M{"company_id": doc.CompanyID}
	update := bson.M{"$set": bson.M{
		"name":       doc.Name,
		"name_key":   doc.NameKey,
		"code":       doc.Code,
		"active":     doc.Active,
		"version":    doc.Version,
		"updated_at": doc.UpdatedAt,
	}}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			r.logger.ErrorContext(ctx, "failed to save company",
				slog.String("company_id", doc.CompanyID),
				slog.String("error", err.Error()),
			)
		}
		return HandleMongoError(err, "company")
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// FindByID loads a company by its identifier.
func (r *CompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	if id.IsZero() {
		return nil, errs.ErrInvalidInput
	}
	return r.findOne(ctx, bson.M{"company_id": id.String()})
}

// FindByCode loads a company by its code.
func (r *CompanyRepository) FindByCode(ctx context.Context, code company.Code) (*company.Company, error) {
	return r.findOne(ctx, bson.M{"code": code.String()})
}

func (r *CompanyRepository) ExistsWithCode(ctx context.Context, code company.Code) (bool, error) {
	return r.exists(ctx, bson.M{"code": code.String()})
}

func (r *CompanyRepository) ExistsWithName(ctx context.Context, name company.Name) (bool, error) {
	return r.exists(ctx, bson.M{"name_key": nameKey(name.String())})
}

// List returns companies ordered by code.
func (r *CompanyRepository) List(ctx context.Context, offset, limit int) ([]*company.Company, error) {
	return listDocuments(ctx, r.collection, offset, limit, "code", documentToCompany, "companies")
}

// Count returns the total number of companies.
func (r *CompanyRepository) Count(ctx context.Context) (int, error) {
	count, err := CountAll(ctx, r.collection)
	if err != nil {
		return 0, HandleMongoError(err, "companies")
	}
	return count, nil
}

func (r *CompanyRepository) findOne(ctx context.Context, filter bson.M) (*company.Company, error) {
	var doc companyDocument
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.ErrorContext(ctx, "failed to find company",
				slog.Any("filter", filter),
				slog.String("error", err.Error()),
			)
		}
		return nil, HandleMongoError(err, "company")
	}

	return documentToCompany(&doc)
}

func (r *CompanyRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, HandleMongoError(err, "company")
	}
	return count > 0, nil
}

func companyToDocument(c *company.Company) companyDocument {
	return companyDocument{
		CompanyID: c.ID().String(),
		Name:      c.Name().String(),
		NameKey:   nameKey(c.Name().String()),
		Code:      c.Code().String(),
		Active:    c.IsActive(),
		Version:   c.Version(),
		BaseDocument: BaseDocument{
			CreatedAt: c.CreatedAt(),
			UpdatedAt: c.UpdatedAt(),
		},
	}
}

func documentToCompany(doc *companyDocument) (*company.Company, error) {
	id, err := uuid.ParseUUID(doc.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("invalid company_id %q: %w", doc.CompanyID, err)
	}

	return company.Reconstruct(
		id,
		doc.Name,
		doc.Code,
		doc.Active,
		doc.CreatedAt.UTC(),
		doc.UpdatedAt.UTC(),
		doc.Version,
	), nil
}

// nameKey is the case-folded form backing the unique name index.
func nameKey(name string) string {
	return strings.ToLower(name)
}

var _ company.Repository = (*CompanyRepository)(nil)
