package services

import (
	"context"
	"fmt"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"go.uber.org/zap"
)

type AlertStore interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
}

type Broadcaster interface {
	Broadcast(orgID uint, payload any)
}

type Pusher interface {
	PushToOrg(ctx context.Context, orgID uint, title, body string, data map[string]string)
}

// AlertBus publishes scoring outcomes to dashboards and, for RED scores,
// persists an alert and pushes it to the organization's staff.
type AlertBus struct {
	alerts AlertStore
	rt     Broadcaster
	push   Pusher
	log    *zap.Logger
	now    func() time.Time
}

func NewAlertBus(alerts AlertStore, rt Broadcaster, push Pusher, log *zap.Logger) *AlertBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &AlertBus{alerts: alerts, rt: rt, push: push, log: log, now: time.Now}
}

func (b *AlertBus) ComplianceScored(ctx context.Context, l *models.MealLog, res models.ComplianceResult) {
	if b.rt != nil {
		b.rt.Broadcast(l.OrgID, map[string]any{
			"kind":       "compliance.updated",
			"clientId":   l.ClientID,
			"mealType":   l.MealType,
			"date":       l.ScheduledDate.Format(dateLayout),
			"compliance": res,
		})
	}
	if res.Color == nil || *res.Color != models.SeverityRed {
		return
	}
	b.Emit(ctx, l.OrgID, l.ClientID, l.ID, "compliance_red",
		fmt.Sprintf("Client %d scored %d on %s %s", l.ClientID, *res.Score, l.ScheduledDate.Format(dateLayout), l.MealType))
}

// Emit persists an alert, then broadcasts and pushes it. A failed insert is
// logged and the notification still goes out.
func (b *AlertBus) Emit(ctx context.Context, orgID, clientID, mealLogID uint, typ, message string) {
	a := &models.Alert{
		OrgID:     orgID,
		ClientID:  clientID,
		MealLogID: mealLogID,
		Type:      typ,
		Message:   message,
		CreatedAt: b.now(),
	}
	if b.alerts != nil {
		if err := b.alerts.CreateAlert(ctx, a); err != nil {
			b.log.Error("unable to persist alert", zap.Uint("org_id", orgID), zap.Error(err))
		}
	}
	if b.rt != nil {
		b.rt.Broadcast(orgID, map[string]any{
			"kind":  "alert.created",
			"alert": a,
		})
	}
	if b.push != nil {
		b.push.PushToOrg(ctx, orgID, "Compliance alert", message, map[string]string{
			"type": typ, "alertId": fmt.Sprintf("%d", a.ID), "clientId": fmt.Sprintf("%d", clientID),
		})
	}
}
