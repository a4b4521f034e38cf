package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	"pasmino/internal/dto"
	"pasmino/internal/httpx"
	"pasmino/internal/recommendation/service"
)

type RecommendationService interface {
	GetRelatedProducts(ctx context.Context, productID int64, limit int) ([]domain.Product, error)
	AddProductRelation(ctx context.Context, in service.AddRelationInput) (*domain.ProductRelation, error)
	ListRelations(ctx context.Context, productID int64) ([]domain.ProductRelation, error)
	DeleteRelation(ctx context.Context, id int64) error
}

type Controller struct {
	service RecommendationService
	logger  *zap.Logger
}

func NewController(service RecommendationService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) Related(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", service.DefaultRelatedLimit, 1, service.MaxRelatedLimit)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	products, err := c.service.GetRelatedProducts(r.Context(), id, limit)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.RelatedProductsResponse{
		Success:  true,
		Products: dto.NewProductDTOs(products),
	})
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.QueryID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	relations, err := c.service.ListRelations(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	out := make([]dto.RelationDTO, 0, len(relations))
	for _, rel := range relations {
		out = append(out, dto.NewRelationDTO(rel))
	}
	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.RelationsResponse{Relations: out})
}

func (c *Controller) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.AddRelationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	rel, err := c.service.AddProductRelation(r.Context(), service.AddRelationInput{
		ProductID:        req.ProductID,
		RelatedProductID: req.RelatedProductID,
		Type:             req.Type,
		Position:         req.Position,
	})
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusCreated, dto.NewRelationDTO(*rel))
}

func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "relationId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	if err := c.service.DeleteRelation(r.Context(), id); err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
