package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
)

const (
	DefaultRelatedLimit = 4
	MaxRelatedLimit     = 20
	maxTypeLength       = 40
)

type RelationStore interface {
	ListRelatedProducts(ctx context.Context, productID int64, limit int) ([]domain.Product, error)
	Insert(ctx context.Context, rel *domain.ProductRelation) error
	ListBySource(ctx context.Context, productID int64) ([]domain.ProductRelation, error)
	Delete(ctx context.Context, id int64) error
}

type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
}

type AddRelationInput struct {
	ProductID        int64
	RelatedProductID int64
	Type             string
	Position         int
}

type RecommendationService struct {
	relations RelationStore
	products  ProductFinder
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(relations RelationStore, products ProductFinder, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		relations: relations,
		products:  products,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecommendationService) GetRelatedProducts(ctx context.Context, productID int64, limit int) ([]domain.Product, error) {
	if limit == 0 {
		limit = DefaultRelatedLimit
	}
	if limit < 1 || limit > MaxRelatedLimit {
		return nil, apperrors.NewValidationError("invalid limit", apperrors.ValidationDetail{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be between 1 and %d", MaxRelatedLimit),
		})
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	return s.relations.ListRelatedProducts(ctx, productID, limit)
}

// AddProductRelation records a directed edge. The same pair may be linked
// more than once.
func (s *RecommendationService) AddProductRelation(ctx context.Context, in AddRelationInput) (*domain.ProductRelation, error) {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if in.Type == "" {
		in.Type = domain.RelationTypeRelated
	}
	if err := validateRelation(in); err != nil {
		return nil, err
	}

	for _, id := range []int64{in.ProductID, in.RelatedProductID} {
		if _, err := s.products.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}

	rel := &domain.ProductRelation{
		ProductID:        in.ProductID,
		RelatedProductID: in.RelatedProductID,
		Type:             in.Type,
		Position:         in.Position,
		CreatedAt:        s.now(),
	}
	if err := s.relations.Insert(ctx, rel); err != nil {
		s.logger.Error("failed to add product relation", zap.Int64("productId", in.ProductID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("product relation added",
		zap.Int64("relationId", rel.ID),
		zap.Int64("productId", rel.ProductID),
		zap.Int64("relatedProductId", rel.RelatedProductID),
	)
	return rel, nil
}

func (s *RecommendationService) ListRelations(ctx context.Context, productID int64) ([]domain.ProductRelation, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.relations.ListBySource(ctx, productID)
}

func (s *RecommendationService) DeleteRelation(ctx context.Context, id int64) error {
	if err := s.relations.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product relation deleted", zap.Int64("relationId", id))
	return nil
}

func validateRelation(in AddRelationInput) error {
	var details []apperrors.ValidationDetail

	if in.ProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "productId", Message: "productId must be a positive integer"})
	}
	if in.RelatedProductID <= 0 {
		details = append(details, apperrors.ValidationDetail{Field: "relatedProductId", Message: "relatedProductId must be a positive integer"})
	}
	if in.ProductID > 0 && in.ProductID == in.RelatedProductID {
		details = append(details, apperrors.ValidationDetail{Field: "relatedProductId", Message: "a product cannot be related to itself"})
	}
	if len(in.Type) > maxTypeLength {
		details = append(details, apperrors.ValidationDetail{Field: "type", Message: "type must be at most 40 characters"})
	}
	if in.Position < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "position", Message: "position must not be negative"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
