package service

import (
	"context"

	"pasmino/internal/domain"
	"pasmino/internal/product/repository"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Product, error)
}

type ProductService struct {
	repo Repository
}

func NewService(repo Repository) *ProductService {
	return &ProductService{repo: repo}
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ListProducts returns the public catalog: inactive products are hidden.
func (s *ProductService) ListProducts(ctx context.Context, categorySlug string, limit, offset int) ([]domain.Product, error) {
	products, err := s.repo.List(ctx, repository.ListFilter{
		CategorySlug: categorySlug,
		ActiveOnly:   true,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
