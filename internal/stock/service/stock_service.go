package service

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pasmino/internal/config"
	"pasmino/internal/domain"
	"pasmino/internal/infrastructure/mysql"
)

type StockService struct {
	tx           Transactor
	products     ProductStore
	reservations ReservationStore
	movements    MovementStore
	publisher    EventPublisher
	deduper      Deduper
	cfg          config.StockConfig
	logger       *zap.Logger

	now       func() time.Time
	sweeps    singleflight.Group
	lastSweep atomic.Int64
}

// NewStockService wires the stock service. publisher and deduper may be nil,
// in which case stock events are not emitted.
func NewStockService(
	tx Transactor,
	products ProductStore,
	reservations ReservationStore,
	movements MovementStore,
	publisher EventPublisher,
	deduper Deduper,
	cfg config.StockConfig,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		tx:           tx,
		products:     products,
		reservations: reservations,
		movements:    movements,
		publisher:    publisher,
		deduper:      deduper,
		cfg:          cfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type SweepResult struct {
	DeletedReservations int
	ProductsTouched     int
}

// Sweep releases every reservation expired at now. Each product is handled in
// its own transaction that locks the product row before the reservation rows,
// the same order Reserve uses. Running it twice is harmless.
func (s *StockService) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	productIDs, err := s.reservations.ExpiredProductIDs(ctx, now)
	if err != nil {
		s.logger.Error("failed to list expired reservations", zap.Error(err))
		return result, err
	}

	var errs []error
	for _, productID := range productIDs {
		var deleted int
		err := s.tx.InTx(ctx, func(ctx context.Context, tx mysql.DBTX) error {
			if _, err := s.products.FindByIDForUpdate(ctx, tx, productID); err != nil {
				return err
			}
			n, _, err := s.releaseExpiredLocked(ctx, tx, productID, now)
			deleted = n
			return err
		})
		if err != nil {
			s.logger.Error("failed to sweep product reservations", zap.Int64("productId", productID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if deleted > 0 {
			result.DeletedReservations += deleted
			result.ProductsTouched++
		}
	}

	s.lastSweep.Store(now.UnixNano())

	if result.DeletedReservations > 0 {
		s.logger.Info("expired reservations released",
			zap.Int("deletedReservations", result.DeletedReservations),
			zap.Int("products", result.ProductsTouched),
		)
	}

	return result, errors.Join(errs...)
}

// releaseExpiredLocked expects the product row to be locked by tx.
func (s *StockService) releaseExpiredLocked(ctx context.Context, tx mysql.DBTX, productID int64, now time.Time) (int, int, error) {
	count, quantity, err := s.reservations.DeleteExpiredForProduct(ctx, tx, productID, now)
	if err != nil {
		return 0, 0, err
	}
	if quantity > 0 {
		if err := s.products.AddReservedStock(ctx, tx, productID, -quantity); err != nil {
			return 0, 0, err
		}
	}
	return count, quantity, nil
}

// lazySweep runs a sweep before reads at most once per LazySweepInterval.
// Concurrent callers share a single in-flight sweep. Failures are logged and
// the read goes ahead with the stored counters.
func (s *StockService) lazySweep(ctx context.Context) {
	now := s.now()
	last := s.lastSweep.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < s.cfg.LazySweepInterval {
		return
	}

	_, err, _ := s.sweeps.Do("sweep", func() (interface{}, error) {
		return s.Sweep(context.WithoutCancel(ctx), now)
	})
	if err != nil {
		s.logger.Warn("lazy sweep failed", zap.Error(err))
	}
}

// lockProducts locks each distinct product in ascending id order.
func (s *StockService) lockProducts(ctx context.Context, tx mysql.DBTX, ids []int64) (map[int64]*domain.Product, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	locked := make(map[int64]*domain.Product, len(sorted))
	for _, id := range sorted {
		if _, ok := locked[id]; ok {
			continue
		}
		p, err := s.products.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}

// publishContext bounds event publishing so a slow broker cannot hold the
// caller's request past PublishTimeout.
func (s *StockService) publishContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.PublishTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.PublishTimeout)
}

func (s *StockService) publishMovements(ctx context.Context, movements []domain.StockMovement) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := s.publishContext(ctx)
	defer cancel()

	for _, m := range movements {
		if err := s.publisher.PublishMovement(ctx, domain.NewStockMovementEvent(m)); err != nil {
			s.logger.Warn("failed to publish stock movement",
				zap.Int64("productId", m.ProductID),
				zap.Int64("movementId", m.ID),
				zap.Error(err),
			)
		}
	}
}
