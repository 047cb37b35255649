package queue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

// EventsExchange carries terminal events for downstream consumers (kitchen
// displays, bookkeeping exports). Routing keys are dot-scoped per entity.
const EventsExchange = "pos.events"

const (
	KeyOrderPlaced   = "order.placed"
	KeyOrderPaid     = "order.paid"
	KeyOrderCredited = "order.credited"
	KeyOrderStatus   = "order.status.updated"
	KeyShiftOpened   = "shift.opened"
	KeyShiftClosed   = "shift.closed"
	KeyDrawerOpened  = "drawer.opened"
)

// Events publishes terminal events. A nil receiver is valid and drops
// everything, so callers never branch on whether rabbitmq is configured.
type Events struct {
	client *Client
	logger *zap.Logger
}

func NewEvents(client *Client, logger *zap.Logger) *Events {
	if client == nil {
		return nil
	}
	return &Events{client: client, logger: logger}
}

func (e *Events) publish(ctx context.Context, key string, payload any) {
	if e == nil || e.client == nil {
		return
	}
	if err := e.client.PublishJSON(ctx, EventsExchange, key, payload); err != nil {
		e.logger.Warn("event publish failed", zap.String("key", key), zap.Error(err))
	}
}

func (e *Events) OrderPlaced(ctx context.Context, order pos.Order) {
	e.publish(ctx, KeyOrderPlaced, orderEvent(order))
}

func (e *Events) OrderPaid(ctx context.Context, order pos.Order) {
	e.publish(ctx, KeyOrderPaid, orderEvent(order))
}

func (e *Events) OrderCredited(ctx context.Context, order pos.Order) {
	e.publish(ctx, KeyOrderCredited, orderEvent(order))
}

func (e *Events) OrderStatusUpdated(ctx context.Context, orderID int64, status pos.OrderStatus) {
	e.publish(ctx, KeyOrderStatus, map[string]any{
		"orderId": orderID,
		"status":  status,
		"at":      time.Now().UTC(),
	})
}

func (e *Events) ShiftOpened(ctx context.Context, shift pos.ShiftReport) {
	e.publish(ctx, KeyShiftOpened, map[string]any{
		"shiftId":        shift.ID,
		"openingBalance": shift.OpeningBalance,
		"at":             shift.DayOpened,
	})
}

func (e *Events) ShiftClosed(ctx context.Context, shift pos.ShiftReport) {
	payload := map[string]any{
		"shiftId": shift.ID,
		"at":      shift.DayClosed,
	}
	if shift.FinalTotalRevenue != nil {
		payload["finalTotalRevenue"] = *shift.FinalTotalRevenue
	}
	if shift.FinalCashDrawer != nil {
		payload["finalCashDrawer"] = *shift.FinalCashDrawer
	}
	e.publish(ctx, KeyShiftClosed, payload)
}

func (e *Events) DrawerOpened(ctx context.Context, actorName string, reason string) {
	e.publish(ctx, KeyDrawerOpened, map[string]any{
		"actor":  actorName,
		"reason": reason,
		"at":     time.Now().UTC(),
	})
}

func orderEvent(order pos.Order) map[string]any {
	return map[string]any{
		"orderId":     order.ID,
		"tableNumber": order.TableNumber,
		"area":        order.Area,
		"waiterId":    order.WaiterID,
		"status":      order.Status,
		"total":       order.Total,
		"at":          order.Timestamp,
	}
}
