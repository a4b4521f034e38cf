package user

import (
	"database/sql"

	"go.uber.org/zap"

	"pasmino/internal/user/controller"
	"pasmino/internal/user/repository"
	"pasmino/internal/user/service"
)

type Module struct {
	Service    *service.UserService
	Controller *controller.IdentityController
}

func NewModule(db *sql.DB, webhookSecret string, logger *zap.Logger) *Module {
	svc := service.NewService(repository.NewMySQLRepository(db), logger)
	return &Module{
		Service:    svc,
		Controller: controller.NewIdentityController(svc, webhookSecret, logger),
	}
}
