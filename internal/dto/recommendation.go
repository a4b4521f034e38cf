package dto

import (
	"time"

	"pasmino/internal/domain"
)

type RelatedProductsResponse struct {
	Success  bool         `json:"success"`
	Products []ProductDTO `json:"products"`
}

type AddRelationRequest struct {
	ProductID        int64  `json:"productId"`
	RelatedProductID int64  `json:"relatedProductId"`
	Type             string `json:"type"`
	Position         int    `json:"position"`
}

type RelationDTO struct {
	ID               int64     `json:"id"`
	ProductID        int64     `json:"productId"`
	RelatedProductID int64     `json:"relatedProductId"`
	Type             string    `json:"type"`
	Position         int       `json:"position"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewRelationDTO(r domain.ProductRelation) RelationDTO {
	return RelationDTO{
		ID:               r.ID,
		ProductID:        r.ProductID,
		RelatedProductID: r.RelatedProductID,
		Type:             r.Type,
		Position:         r.Position,
		CreatedAt:        r.CreatedAt,
	}
}

type RelationsResponse struct {
	Relations []RelationDTO `json:"relations"`
}
