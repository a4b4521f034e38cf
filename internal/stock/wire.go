package stock

import (
	"database/sql"

	"go.uber.org/zap"

	"pasmino/internal/config"
	"pasmino/internal/infrastructure/mysql"
	productrepo "pasmino/internal/product/repository"
	"pasmino/internal/stock/controller"
	"pasmino/internal/stock/repository"
	"pasmino/internal/stock/service"
)

type Module struct {
	Service *service.StockService
	Public  *controller.StockController
	Admin   *controller.AdminController
}

func NewModule(
	db *sql.DB,
	txManager *mysql.TxManager,
	publisher service.EventPublisher,
	deduper service.Deduper,
	cfg *config.Config,
	logger *zap.Logger,
) *Module {
	svc := service.NewStockService(
		txManager,
		productrepo.NewMySQLRepository(db),
		repository.NewReservationRepository(db),
		repository.NewMovementRepository(db),
		publisher,
		deduper,
		cfg.Stock,
		logger,
	)

	return &Module{
		Service: svc,
		Public:  controller.NewStockController(svc, logger),
		Admin:   controller.NewAdminController(svc, cfg.Stock.LowStockThreshold, logger),
	}
}
