package cron

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	stockservice "pasmino/internal/stock/service"
)

const lockKey = "pasmino:cron:sweep"

type ReservationSweeper interface {
	Sweep(ctx context.Context, now time.Time) (stockservice.SweepResult, error)
}

type OrderExpirer interface {
	ExpireAbandoned(ctx context.Context, now time.Time) (int, error)
}

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

type Result struct {
	DeletedReservations int
	CancelledOrders     int
	RanAt               time.Time
}

// Sweeper releases expired reservations and cancels abandoned orders, either
// on demand or on a fixed interval.
type Sweeper struct {
	stock    ReservationSweeper
	orders   OrderExpirer
	locker   Locker
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewSweeper(stock ReservationSweeper, orders OrderExpirer, locker Locker, interval, lockTTL time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		stock:    stock,
		orders:   orders,
		locker:   locker,
		interval: interval,
		lockTTL:  lockTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce sweeps reservations first so abandoned orders are cancelled against
// an up to date reservation table. Both steps run even if the first fails.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	now := s.now()
	res := Result{RanAt: now}

	swept, sweepErr := s.stock.Sweep(ctx, now)
	res.DeletedReservations = swept.DeletedReservations

	cancelled, expireErr := s.orders.ExpireAbandoned(ctx, now)
	res.CancelledOrders = cancelled

	return res, errors.Join(sweepErr, expireErr)
}

// Run ticks until ctx is done. Each tick is skipped unless this instance wins
// the shared lock. A zero interval disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("background sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("background sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.logger.Info("background sweeper stopped")
			return
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	release, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		s.logger.Warn("sweep lock unavailable", zap.Error(err))
		return
	}
	if release == nil {
		s.logger.Debug("sweep skipped, another instance holds the lock")
		return
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("background sweep failed", zap.Error(err))
	}
	if res.DeletedReservations > 0 || res.CancelledOrders > 0 {
		s.logger.Info("background sweep completed",
			zap.Int("deletedReservations", res.DeletedReservations),
			zap.Int("cancelledOrders", res.CancelledOrders),
		)
	}
}
