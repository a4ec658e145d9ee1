package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
)

// PurgeStore is the persistence surface the purge worker needs.
type PurgeStore interface {
	DeleteRecordsByOwner(ctx context.Context, owner string) (int64, int64, error)
	ListOrphanedOwners(ctx context.Context) ([]string, error)
}

// PurgeProcessor removes the records of deprovisioned users. It runs in
// the worker, fed by the purge queue, with a periodic sweep as a safety
// net for lost messages.
type PurgeProcessor struct {
	store  PurgeStore
	logger *log.Logger
}

func NewPurgeProcessor(store PurgeStore, logger *log.Logger) *PurgeProcessor {
	return &PurgeProcessor{
		store:  store,
		logger: logger.WithComponent("purge"),
	}
}

// Process handles one purge message. Purging an owner with no records
// left succeeds, redeliveries are harmless.
func (p *PurgeProcessor) Process(ctx context.Context, msg *amqp.UserPurgeMessage) error {
	expenses, incomes, err := p.store.DeleteRecordsByOwner(ctx, msg.ExternalID)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "purged user records",
		"external_id", msg.ExternalID,
		"expenses", expenses,
		"incomes", incomes)
	return nil
}

// Sweep purges records belonging to owners with no user row.
func (p *PurgeProcessor) Sweep(ctx context.Context) error {
	owners, err := p.store.ListOrphanedOwners(ctx)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		expenses, incomes, err := p.store.DeleteRecordsByOwner(ctx, owner)
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "swept orphaned records",
			"external_id", owner,
			"expenses", expenses,
			"incomes", incomes)
	}
	return nil
}
