package recommendation

import (
	"database/sql"

	"go.uber.org/zap"

	productrepo "pasmino/internal/product/repository"
	"pasmino/internal/recommendation/controller"
	"pasmino/internal/recommendation/repository"
	"pasmino/internal/recommendation/service"
)

func NewModule(db *sql.DB, logger *zap.Logger) *controller.Controller {
	relations := repository.NewMySQLRepository(db)
	products := productrepo.NewMySQLRepository(db)
	svc := service.NewService(relations, products, logger)
	return controller.NewController(svc, logger)
}
