package product

import (
	"database/sql"

	"go.uber.org/zap"

	"pasmino/internal/product/controller"
	"pasmino/internal/product/repository"
	"pasmino/internal/product/service"
)

func NewModule(db *sql.DB, logger *zap.Logger) *controller.Controller {
	repo := repository.NewMySQLRepository(db)
	svc := service.NewService(repo)
	return controller.NewController(svc, logger)
}
