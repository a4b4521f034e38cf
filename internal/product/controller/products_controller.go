package controller

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	"pasmino/internal/dto"
	"pasmino/internal/httpx"
)

type ProductService interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, categorySlug string, limit, offset int) ([]domain.Product, error)
}

type Controller struct {
	service ProductService
	logger  *zap.Logger
}

func NewController(service ProductService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}
	offset, err := httpx.QueryInt(r, "offset", 0, 0, 1_000_000)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	products, err := c.service.ListProducts(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.ProductListResponse{
		Products: dto.NewProductDTOs(products),
		Limit:    limit,
		Offset:   offset,
	})
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "productId")
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	product, err := c.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, c.logger, err)
		return
	}

	httpx.WriteJSON(w, c.logger, http.StatusOK, dto.NewProductDTO(*product))
}
