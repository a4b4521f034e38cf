package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pasmino/internal/domain"
	apperrors "pasmino/internal/errors"
	"pasmino/internal/infrastructure/mysql"
	"pasmino/internal/order/service"
	"pasmino/internal/payment"
	stockservice "pasmino/internal/stock/service"
)

const maxSessionIDLength = 64

type ProductReader interface {
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderID int64) (bool, error)
}

type CheckoutInput struct {
	User      *domain.User
	SessionID string
	Items     []domain.CartItem
}

type CheckoutResult struct {
	Order      domain.Order
	Preference payment.Preference
}

type CheckoutUseCase struct {
	tx             service.Transactor
	products       ProductReader
	orders         service.OrderRepository
	items          service.OrderItemRepository
	payments       service.PaymentRepository
	stock          service.StockSettler
	gateway        service.PaymentGateway
	canceller      OrderCanceller
	reservationTTL time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

func NewCheckoutUseCase(
	tx service.Transactor,
	products ProductReader,
	orders service.OrderRepository,
	items service.OrderItemRepository,
	payments service.PaymentRepository,
	stock service.StockSettler,
	gateway service.PaymentGateway,
	canceller OrderCanceller,
	reservationTTL time.Duration,
	logger *zap.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		tx:             tx,
		products:       products,
		orders:         orders,
		items:          items,
		payments:       payments,
		stock:          stock,
		gateway:        gateway,
		canceller:      canceller,
		reservationTTL: reservationTTL,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Checkout creates a PENDING order holding a reservation for every line and
// opens a payment preference for it. Either every line is reserved or nothing
// is written. If the gateway fails the order is cancelled again.
func (uc *CheckoutUseCase) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	// Bloque 1: Pre-validaciones (fuera de transacción)
	if in.User == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if err := validateCheckout(in); err != nil {
		return nil, err
	}

	uc.logger.Info("checkout started",
		zap.Int64("userId", in.User.ID),
		zap.Int("itemCount", len(in.Items)),
	)

	// Bloque 2: Ordenar items por productId ASC (anti-deadlock)
	items := append([]domain.CartItem(nil), in.Items...)
	domain.SortCartItems(items)

	catalog, err := uc.loadProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	// Bloque 3: Orden, líneas y reservas en una sola transacción
	order := uc.buildOrder(in.User.ID, items, catalog)
	err = uc.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
		order.ID = 0
		if err := uc.orders.Insert(ctx, tx, &order); err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			id, err := uc.items.Insert(ctx, tx, order.Items[i])
			if err != nil {
				return err
			}
			order.Items[i].ID = id
		}
		_, err := uc.stock.ReserveItemsInTx(ctx, tx, order.ID, in.SessionID, items, uc.reservationTTL)
		return err
	})
	if err != nil {
		if _, ok := apperrors.IsOutOfStockError(err); ok {
			uc.logger.Warn("checkout rejected", zap.Int64("userId", in.User.ID), zap.Error(err))
		} else {
			uc.logger.Error("checkout transaction failed", zap.Int64("userId", in.User.ID), zap.Error(err))
		}
		return nil, err
	}

	// Bloque 4: Preferencia de pago (fuera de transacción)
	pref, err := uc.gateway.CreatePreference(ctx, uc.preferenceRequest(order, in.User, catalog))
	if err != nil {
		uc.logger.Error("payment preference failed, cancelling order", zap.Int64("orderId", order.ID), zap.Error(err))
		if _, cancelErr := uc.canceller.CancelOrder(context.WithoutCancel(ctx), order.ID); cancelErr != nil {
			uc.logger.Error("failed to cancel order after gateway failure", zap.Int64("orderId", order.ID), zap.Error(cancelErr))
		}
		if _, ok := apperrors.IsUpstreamError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewUpstreamError("mercadopago", err)
	}

	now := uc.now()
	p := domain.Payment{
		OrderID:      order.ID,
		Provider:     "mercadopago",
		PreferenceID: pref.ID,
		Status:       "pending",
		InitPoint:    pref.InitPoint,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.payments.Upsert(ctx, nil, &p); err != nil {
		uc.logger.Error("failed to store payment preference", zap.Int64("orderId", order.ID), zap.Error(err))
	}
	order.Payment = &p

	uc.logger.Info("checkout completed",
		zap.Int64("orderId", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("preferenceId", pref.ID),
	)
	return &CheckoutResult{Order: order, Preference: *pref}, nil
}

func (uc *CheckoutUseCase) loadProducts(ctx context.Context, items []domain.CartItem) (map[int64]domain.Product, error) {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := uc.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	catalog := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
		}
	}
	return catalog, nil
}

func (uc *CheckoutUseCase) buildOrder(userID int64, items []domain.CartItem, catalog map[int64]domain.Product) domain.Order {
	now := uc.now()
	order := domain.Order{
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     catalog[item.ProductID].Price,
		})
	}
	order.Total = order.ComputeTotal()
	return order
}

func (uc *CheckoutUseCase) preferenceRequest(order domain.Order, user *domain.User, catalog map[int64]domain.Product) payment.PreferenceRequest {
	req := payment.PreferenceRequest{
		OrderID:    order.ID,
		PayerEmail: user.Email,
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, payment.PreferenceItem{
			ProductID: item.ProductID,
			Title:     catalog[item.ProductID].Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	return req
}

func validateCheckout(in CheckoutInput) error {
	if err := stockservice.ValidateCartItems(in.Items); err != nil {
		return err
	}
	if strings.TrimSpace(in.SessionID) == "" || len(in.SessionID) > maxSessionIDLength {
		return apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "sessionId",
			Message: "sessionId is required and must be at most 64 characters",
		})
	}
	return nil
}
