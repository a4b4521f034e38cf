package domain

import "time"

const RelationTypeRelated = "RELATED"

type ProductRelation struct {
	ID               int64
	ProductID        int64
	RelatedProductID int64
	Type             string
	Position         int
	CreatedAt        time.Time
}
