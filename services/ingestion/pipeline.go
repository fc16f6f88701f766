package ingestion

import (
	"context"
	"fmt"
	"time"

	alertService "vitalwatch/services/alert"
	emergencyService "vitalwatch/services/emergency"
	"vitalwatch/services/notification"
	thresholdService "vitalwatch/services/threshold"

	"vitalwatch/logger"
	"vitalwatch/models/alert"
	"vitalwatch/models/health"
	"vitalwatch/models/threshold"
	"vitalwatch/models/user"

	"gorm.io/gorm"
)

// Pipeline orchestrates the evaluation of one incoming reading:
// resolve → evaluate → alert → notify → escalate. The reading is always
// persisted before evaluation; downstream side effects are best-effort
// relative to the breach record.
type Pipeline struct {
	DB         *gorm.DB
	Resolver   *thresholdService.Resolver
	Alerts     *alertService.Factory
	Dispatcher *notification.Dispatcher
	Escalator  *emergencyService.Escalator
}

func NewPipeline(db *gorm.DB) *Pipeline {
	return &Pipeline{
		DB:         db,
		Resolver:   thresholdService.NewResolver(db),
		Alerts:     alertService.NewFactory(db),
		Dispatcher: notification.NewDispatcher(db),
		Escalator:  emergencyService.NewEscalator(db),
	}
}

// Ingest persists the reading and evaluates each present vital
// independently. A failure on one vital is logged and skipped; it never
// aborts the remaining vitals.
func (p *Pipeline) Ingest(ctx context.Context, u *user.User, reading *health.HealthData) (*health.HealthData, []alert.AlertEvent, error) {
	if reading.UserID == 0 {
		reading.UserID = u.ID
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now()
	}

	if err := p.DB.Create(reading).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to persist reading: %w", err)
	}

	var raised []alert.AlertEvent
	for _, kind := range health.AllVitalKinds() {
		value := reading.Value(kind)
		if value == nil {
			continue
		}

		ev, err := p.evaluateVital(ctx, u, reading, kind, *value)
		if err != nil {
			logger.Error(fmt.Sprintf("Evaluation failed for %s on reading %d", kind, reading.ID), err)
			continue
		}
		if ev != nil {
			raised = append(raised, *ev)
		}
	}

	return reading, raised, nil
}

func (p *Pipeline) evaluateVital(ctx context.Context, u *user.User, reading *health.HealthData, kind health.VitalKind, value float64) (*alert.AlertEvent, error) {
	band, ok, err := p.Resolver.Resolve(u.ID, kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Nothing configured, nothing to evaluate.
		return nil, nil
	}

	breach := thresholdService.Evaluate(band, value)
	if breach == threshold.NoBreach {
		return nil, nil
	}

	ev, err := p.Alerts.Build(u, reading, kind, value, breach.Severity())
	if err != nil {
		return nil, err
	}

	p.Dispatcher.Dispatch(ctx, ev)

	if _, err := p.Escalator.Escalate(u, ev, reading.DeviceID); err != nil {
		// The alert record stands even when escalation fails.
		logger.Error(fmt.Sprintf("Escalation failed for alert %d", ev.ID), err)
	}

	return ev, nil
}
