package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/tuanminhdo/fashionshop-backend/internal/orders"
	"github.com/tuanminhdo/fashionshop-backend/pkg/db/models"
	"github.com/tuanminhdo/fashionshop-backend/pkg/enums"
	"github.com/tuanminhdo/fashionshop-backend/pkg/logger"
)

const (
	defaultPendingTTL  = 72 * time.Hour
	defaultExpiryBatch = 100

	autoCancelNote = "automatically cancelled: pending payment window expired"
)

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderTransitioner interface {
	Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error)
}

// OrderTTLJobParams configure the pending order expiry sweep.
type OrderTTLJobParams struct {
	Logger     *logger.Logger
	Pending    pendingOrderReader
	Orders     orderTransitioner
	PendingTTL time.Duration
	Batch      int
}

// NewOrderTTLJob builds the cron job that cancels orders left pending past
// the configured TTL. Each cancellation goes through the regular transition
// path, so restocking, ledger entries and events all apply.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order transitioner required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &orderTTLJob{
		logg:    params.Logger,
		pending: params.Pending,
		orders:  params.Orders,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type orderTTLJob struct {
	logg    *logger.Logger
	pending pendingOrderReader
	orders  orderTransitioner
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.pending.FindPendingBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	note := autoCancelNote
	var errs []error
	cancelled := 0
	for _, order := range stale {
		_, err := j.orders.Transition(ctx, orders.TransitionInput{
			IDOrCode:  order.ID.String(),
			Target:    enums.OrderStatusCancelled,
			ActorRole: enums.UserRoleAdmin,
			Note:      &note,
		})
		if err != nil {
			errCtx := j.logg.WithFields(ctx, map[string]any{"order_code": order.Code})
			j.logg.Error(errCtx, "auto-cancel failed", err)
			errs = append(errs, fmt.Errorf("auto-cancel %s: %w", order.Code, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"found":     len(stale),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "pending order expiry sweep complete")
	return multierr.Combine(errs...)
}
