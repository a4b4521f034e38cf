package order

import (
	"database/sql"

	"go.uber.org/zap"

	"pasmino/internal/config"
	"pasmino/internal/infrastructure/mysql"
	"pasmino/internal/order/controller"
	orderrepo "pasmino/internal/order/repository"
	"pasmino/internal/order/service"
	"pasmino/internal/order/usecase"
	productrepo "pasmino/internal/product/repository"
)

type Module struct {
	Service    *service.OrderService
	Controller *controller.OrderController
}

func NewModule(
	db *sql.DB,
	txManager *mysql.TxManager,
	stock service.StockSettler,
	gateway service.PaymentGateway,
	cfg *config.Config,
	logger *zap.Logger,
) *Module {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)
	paymentRepo := orderrepo.NewMySQLPaymentRepository(db)

	orderSvc := service.NewOrderService(
		txManager,
		orderRepo,
		orderItemRepo,
		paymentRepo,
		stock,
		gateway,
		cfg.Order,
		logger,
	)

	checkout := usecase.NewCheckoutUseCase(
		txManager,
		productrepo.NewMySQLRepository(db),
		orderRepo,
		orderItemRepo,
		paymentRepo,
		stock,
		gateway,
		orderSvc,
		cfg.Stock.MaxReservationTTL,
		logger,
	)

	return &Module{
		Service:    orderSvc,
		Controller: controller.NewOrderController(checkout, orderSvc, logger),
	}
}
