package notification

import (
	"context"
	"fmt"
	"time"

	"vitalwatch/httpServices/push"
	"vitalwatch/httpServices/sms"
	"vitalwatch/logger"
	"vitalwatch/models/alert"
	"vitalwatch/models/contact"
	"vitalwatch/models/device"

	"gorm.io/gorm"
)

// PushSender delivers push notifications to device tokens.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string) (success, failure int, err error)
}

// SMSSender delivers one text message to one destination.
type SMSSender interface {
	Send(ctx context.Context, message, destination string) error
}

// Dispatcher fans an alert out to every registered device token (push) and
// every emergency contact (SMS). One notification row is persisted pending
// before each attempt and moved to a terminal sent or failed state after.
// Delivery failures are recorded, never propagated.
type Dispatcher struct {
	DB      *gorm.DB
	Push    PushSender
	SMS     SMSSender
	Timeout time.Duration
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{
		DB:      db,
		Push:    push.NewPushService(),
		SMS:     sms.NewSMSService(),
		Timeout: 10 * time.Second,
	}
}

// Dispatch delivers the alert's message through all channels. Collect-all
// semantics: every recipient is attempted regardless of sibling failures,
// and the returned rows carry the per-recipient outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *alert.AlertEvent) []alert.AlertNotification {
	var results []alert.AlertNotification

	var devices []device.Device
	if err := d.DB.Where("user_id = ?", ev.UserID).Find(&devices).Error; err != nil {
		logger.Error("Failed to load devices for alert fan-out", err)
	}
	for _, dev := range devices {
		if dev.FCMToken == "" {
			continue
		}
		row := d.attempt(ctx, ev, alert.MethodPush, dev.FCMToken, func(sendCtx context.Context) error {
			success, _, err := d.Push.Send(sendCtx, []string{dev.FCMToken}, "Vital Alert", ev.Message)
			if err != nil {
				return err
			}
			if success == 0 {
				return fmt.Errorf("push rejected for token")
			}
			return nil
		})
		if row != nil {
			results = append(results, *row)
		}
	}

	var contacts []contact.EmergencyContact
	if err := d.DB.Where("user_id = ?", ev.UserID).Find(&contacts).Error; err != nil {
		logger.Error("Failed to load emergency contacts for alert fan-out", err)
	}
	for _, ct := range contacts {
		recipient := ct.PhoneNumber
		row := d.attempt(ctx, ev, alert.MethodSMS, recipient, func(sendCtx context.Context) error {
			return d.SMS.Send(sendCtx, ev.Message, recipient)
		})
		if row != nil {
			results = append(results, *row)
		}
	}

	return results
}

// attempt persists the pending row, runs the send with a per-recipient
// timeout, and records the terminal status. A timed-out send is a failed
// send; nothing is ever left pending.
func (d *Dispatcher) attempt(ctx context.Context, ev *alert.AlertEvent, method alert.AlertMethod, recipient string, send func(context.Context) error) *alert.AlertNotification {
	row := alert.AlertNotification{
		AlertEventID: ev.ID,
		Method:       method,
		Recipient:    recipient,
		Message:      ev.Message,
		Status:       alert.StatusPending,
	}
	if err := d.DB.Create(&row).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to persist pending %s notification for alert %d", method, ev.ID), err)
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	if err := send(sendCtx); err != nil {
		row.Status = alert.StatusFailed
		row.FailureReason = err.Error()
		logger.Warning(fmt.Sprintf("Delivery failed for %s notification %d: %v", method, row.ID, err))
	} else {
		row.Status = alert.StatusSent
	}

	if err := d.DB.Save(&row).Error; err != nil {
		logger.Error(fmt.Sprintf("Failed to update %s notification %d status", method, row.ID), err)
	}

	return &row
}
