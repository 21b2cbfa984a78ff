package notification

import (
	"context"
	"fmt"
	"time"

	notificationRepo "repairhub/database/repository/notification"
	technicianRepo "repairhub/database/repository/technician"
	"repairhub/models"
	"repairhub/services/metrics"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recipient roles.
const (
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

// NotificationService records an in-app notification and pushes it when possible.
type NotificationService interface {
	Notify(ctx context.Context, n models.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, limit int64) ([]models.Notification, error)
}

// Messenger is the part of the FCM client used for delivery.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Repo        notificationRepo.NotificationRepository
	Technicians technicianRepo.TechnicianRepository
	// Messenger is nil when push delivery is not configured.
	Messenger  Messenger
	AdminTopic string
	Metrics    *metrics.DispatchMetrics
	Logger     *zap.Logger
}

func (s *DefaultNotificationService) Notify(ctx context.Context, n models.Notification) error {
	err := s.notify(ctx, n)
	if err != nil {
		s.Metrics.NotificationFailed(n.Type)
	}
	return err
}

func (s *DefaultNotificationService) notify(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if err := s.Repo.Insert(ctx, &n); err != nil {
		return fmt.Errorf("Notify: %w", err)
	}
	if s.Messenger == nil {
		return nil
	}
	msg, err := s.buildMessage(ctx, n)
	if err != nil || msg == nil {
		return err
	}
	if _, err := s.Messenger.Send(ctx, msg); err != nil {
		return fmt.Errorf("Notify: failed to send FCM message: %w", err)
	}
	return nil
}

func (s *DefaultNotificationService) ListForRecipient(ctx context.Context, recipientID string, limit int64) ([]models.Notification, error) {
	return s.Repo.ListForRecipient(ctx, recipientID, limit)
}

// buildMessage addresses the push. Technicians are reached by device token,
// customers by their personal topic and admins by the shared admin topic.
func (s *DefaultNotificationService) buildMessage(ctx context.Context, n models.Notification) (*messaging.Message, error) {
	data := map[string]string{"type": n.Type, "role": n.RecipientRole}
	for k, v := range n.Data {
		data[k] = v
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{Title: n.Title, Body: n.Message},
		Data:         data,
	}

	switch n.RecipientRole {
	case RoleTechnician:
		t, err := s.Technicians.GetByID(ctx, n.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("Notify: could not find technician %s: %w", n.RecipientID, err)
		}
		if t.FCMToken == "" {
			return nil, nil
		}
		msg.Token = t.FCMToken
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		}
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{Aps: &messaging.Aps{Sound: "default"}},
		}
	case RoleCustomer:
		msg.Topic = "customer-" + n.RecipientID
	case RoleAdmin:
		if s.AdminTopic == "" {
			return nil, nil
		}
		msg.Topic = s.AdminTopic
	default:
		return nil, nil
	}
	return msg, nil
}

// Deliver sends n and logs any failure. Notification failures never reach the caller.
func Deliver(ctx context.Context, svc NotificationService, logger *zap.Logger, n models.Notification) {
	if svc == nil {
		return
	}
	if err := svc.Notify(ctx, n); err != nil {
		if logger != nil {
			logger.Warn("Notification delivery failed",
				zap.String("type", n.Type),
				zap.String("recipientRole", n.RecipientRole),
				zap.String("recipientID", n.RecipientID),
				zap.Error(err))
		}
	}
}
