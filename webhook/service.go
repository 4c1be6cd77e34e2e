package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operations exposed to the front-end
type UseCase interface {
	RegisterWebhook(ctx context.Context, ownerID, webhookTypeID, targetURL string) (Registration, error)
	CreateWebhookType(ctx context.Context, description, slug string) (WebhookType, error)
	ListWebhookTypes(ctx context.Context) ([]WebhookType, error)
	ListRegistrations(ctx context.Context) ([]Registration, error)
	UpdateRegistration(ctx context.Context, id, targetURL string) (Registration, error)
	TriggerDelivery(ctx context.Context, sourceIP string) ([]Outcome, error)
	GetNotification(ctx context.Context, id string) (Notification, error)
}

type Service struct {
	Registrations RegistrationRepository
	Types         WebhookTypeRepository
	Notifications NotificationReader
	Owners        OwnerDirectory
	Dispatcher    *Dispatcher
}

// NewService creates a new webhook service with dependency injection
func NewService(
	registrations RegistrationRepository,
	types WebhookTypeRepository,
	notifications NotificationReader,
	owners OwnerDirectory,
	dispatcher *Dispatcher,
) *Service {
	return &Service{
		Registrations: registrations,
		Types:         types,
		Notifications: notifications,
		Owners:        owners,
		Dispatcher:    dispatcher,
	}
}

// RegisterWebhook validates owner and webhook type, then stores an active registration
func (s *Service) RegisterWebhook(ctx context.Context, ownerID, webhookTypeID, targetURL string) (Registration, error) {
	if ownerID == "" {
		return Registration{}, NewValidationError("userId", "User ID does not exist")
	}
	exists, err := s.Owners.OwnerExists(ctx, ownerID)
	if err != nil {
		return Registration{}, fmt.Errorf("checking owner %s: %w: %w", ownerID, ErrOwnerUnresolved, err)
	}
	if !exists {
		return Registration{}, NewValidationError("userId", "User ID does not exist")
	}

	if webhookTypeID == "" {
		return Registration{}, NewValidationError("webhookId", "Webhook ID does not exist")
	}
	exists, err = s.Types.WebhookTypeExists(ctx, webhookTypeID)
	if err != nil {
		return Registration{}, fmt.Errorf("checking webhook type %s: %w", webhookTypeID, err)
	}
	if !exists {
		return Registration{}, NewValidationError("webhookId", "Webhook ID does not exist")
	}

	if err := ValidateTargetURL(targetURL); err != nil {
		return Registration{}, err
	}

	now := time.Now().UTC()
	r := Registration{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		WebhookTypeID: webhookTypeID,
		TargetURL:     targetURL,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Registrations.InsertRegistration(ctx, r); err != nil {
		return Registration{}, fmt.Errorf("inserting registration: %w", err)
	}
	return r, nil
}

// CreateWebhookType adds a catalog entry
func (s *Service) CreateWebhookType(ctx context.Context, description, slug string) (WebhookType, error) {
	if err := ValidateSlug(slug); err != nil {
		return WebhookType{}, err
	}
	t := WebhookType{
		ID:          uuid.New().String(),
		Description: description,
		Slug:        slug,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Types.InsertWebhookType(ctx, t); err != nil {
		return WebhookType{}, fmt.Errorf("inserting webhook type: %w", err)
	}
	return t, nil
}

func (s *Service) ListWebhookTypes(ctx context.Context) ([]WebhookType, error) {
	all, err := s.Types.SelectWebhookTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting webhook types: %w", err)
	}
	return all, nil
}

func (s *Service) ListRegistrations(ctx context.Context) ([]Registration, error) {
	all, err := s.Registrations.SelectRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting registrations: %w", err)
	}
	return all, nil
}

// UpdateRegistration changes the target URL and nothing else
func (s *Service) UpdateRegistration(ctx context.Context, id, targetURL string) (Registration, error) {
	if id == "" {
		return Registration{}, NewValidationError("id", "Webhook Reg ID does not exist")
	}
	if err := ValidateTargetURL(targetURL); err != nil {
		return Registration{}, err
	}
	r, err := s.Registrations.UpdateTargetURL(ctx, id, targetURL, time.Now().UTC())
	if err != nil {
		return Registration{}, fmt.Errorf("updating registration %s: %w", id, err)
	}
	return r, nil
}

// TriggerDelivery runs one dispatch wave
func (s *Service) TriggerDelivery(ctx context.Context, sourceIP string) ([]Outcome, error) {
	if sourceIP == "" {
		return nil, NewValidationError("ipAddress", "IP address is required")
	}
	outcomes, err := s.Dispatcher.Trigger(ctx, sourceIP)
	if err != nil {
		return nil, fmt.Errorf("triggering delivery: %w", err)
	}
	return outcomes, nil
}

func (s *Service) GetNotification(ctx context.Context, id string) (Notification, error) {
	n, err := s.Notifications.GetNotification(ctx, id)
	if err != nil {
		return Notification{}, fmt.Errorf("getting notification %s: %w", id, err)
	}
	return n, nil
}
