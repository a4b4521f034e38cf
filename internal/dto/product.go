package dto

import (
	"github.com/shopspring/decimal"

	"pasmino/internal/domain"
)

type ProductDTO struct {
	ID             int64           `json:"id"`
	CategoryID     *int64          `json:"categoryId"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	AvailableStock int             `json:"availableStock"`
	IsActive       bool            `json:"isActive"`
	IsAvailable    bool            `json:"isAvailable"`
}

func NewProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:             p.ID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		AvailableStock: p.AvailableStock(),
		IsActive:       p.IsActive,
		IsAvailable:    p.IsAvailable,
	}
}

func NewProductDTOs(products []domain.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}

type ProductListResponse struct {
	Products []ProductDTO `json:"products"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}
