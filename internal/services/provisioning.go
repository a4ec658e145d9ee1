package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Identity lifecycle event types as sent by the provider.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// IdentityEvent is the decoded webhook payload.
type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

type IdentityEventData struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// UserStore is the persistence surface provisioning needs.
type UserStore interface {
	UpsertUser(ctx context.Context, u core.User) error
	DeleteUserByExternalID(ctx context.Context, externalID string) error
	DeleteRecordsByOwner(ctx context.Context, owner string) (int64, int64, error)
}

// PurgePublisher hands record cleanup of deleted users to the worker.
type PurgePublisher interface {
	PublishUserPurge(ctx context.Context, externalID string) error
}

// ProvisioningService mirrors identity provider accounts into the local
// store. Deletion removes the user row immediately and defers record
// cleanup to the purge queue; without a queue it purges inline.
type ProvisioningService struct {
	store     UserStore
	publisher PurgePublisher
	logger    *log.Logger
}

func NewProvisioningService(store UserStore, publisher PurgePublisher, logger *log.Logger) *ProvisioningService {
	return &ProvisioningService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent("provisioning"),
	}
}

// Handle applies one lifecycle event. Unknown event types are ignored.
func (s *ProvisioningService) Handle(ctx context.Context, event IdentityEvent) error {
	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		return s.upsert(ctx, event)
	case EventUserDeleted:
		return s.delete(ctx, event)
	default:
		s.logger.WarnContext(ctx, "ignoring unknown identity event", "type", event.Type)
		return nil
	}
}

func (s *ProvisioningService) upsert(ctx context.Context, event IdentityEvent) error {
	if strings.TrimSpace(event.Data.ID) == "" {
		return fmt.Errorf("%w: missing user id", core.ErrInvalidPayload)
	}
	if len(event.Data.EmailAddresses) == 0 {
		return fmt.Errorf("%w: missing email addresses", core.ErrInvalidPayload)
	}

	user := core.User{
		ExternalID: event.Data.ID,
		Name:       strings.TrimSpace(event.Data.FirstName + " " + event.Data.LastName),
		Email:      event.Data.EmailAddresses[0].EmailAddress,
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user provisioned",
		"external_id", user.ExternalID,
		"event", event.Type)
	return nil
}

func (s *ProvisioningService) delete(ctx context.Context, event IdentityEvent) error {
	externalID := strings.TrimSpace(event.Data.ID)
	if externalID == "" {
		return fmt.Errorf("%w: missing user id", core.ErrInvalidPayload)
	}

	if err := s.store.DeleteUserByExternalID(ctx, externalID); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishUserPurge(ctx, externalID); err != nil {
			// The periodic orphan sweep picks the records up later
			s.logger.ErrorContext(ctx, "failed to publish purge message",
				"external_id", externalID, "error", err)
		}
	} else {
		expenses, incomes, err := s.store.DeleteRecordsByOwner(ctx, externalID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "records purged inline",
			"external_id", externalID,
			"expenses", expenses,
			"incomes", incomes)
	}

	s.logger.InfoContext(ctx, "user deprovisioned", "external_id", externalID)
	return nil
}
