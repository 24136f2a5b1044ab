package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sweeper is the dormancy lifecycle worker. On each tick it demotes
// zero-balance wallets that have gone quiet: ACTIVE wallets past the
// inactivity threshold become INACTIVE, INACTIVE wallets past the
// suspension threshold become SUSPENDED. Every demotion writes an
// audit entry attributed to the system actor.
type Sweeper struct {
	walletRepo     ports.WalletRepository
	auditRepo      ports.AuditRepository
	transactor     ports.DBTransactor
	publisher      ports.EventPublisher
	inactiveDays   int
	suspensionDays int
	interval       time.Duration
	systemActor    uuid.UUID
	log            zerolog.Logger

	running atomic.Bool
}

// NewSweeper creates a new Sweeper.
func NewSweeper(
	walletRepo ports.WalletRepository,
	auditRepo ports.AuditRepository,
	transactor ports.DBTransactor,
	publisher ports.EventPublisher,
	inactiveDays, suspensionDays int,
	interval time.Duration,
	systemActor uuid.UUID,
	log zerolog.Logger,
) *Sweeper {
	return &Sweeper{
		walletRepo:     walletRepo,
		auditRepo:      auditRepo,
		transactor:     transactor,
		publisher:      publisher,
		inactiveDays:   inactiveDays,
		suspensionDays: suspensionDays,
		interval:       interval,
		systemActor:    systemActor,
		log:            log,
	}
}

// Run executes the sweep on a fixed interval until ctx is cancelled.
// An immediate sweep runs on startup before the first tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("dormancy sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

// sweepOnce is single-flight: a tick arriving while the previous sweep
// is still running is skipped rather than queued.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("previous sweep still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	if err := s.Sweep(ctx); err != nil {
		s.log.Error().Err(err).Msg("dormancy sweep failed")
	}
}

type statusChange struct {
	wallet domain.Wallet
	status domain.WalletStatus
	action domain.AuditAction
	reason string
}

// Sweep applies the dormancy transitions once. All demotions in a run
// commit as one batch.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := time.Now().UTC()

	candidates, err := s.walletRepo.ListSweepCandidates(ctx)
	if err != nil {
		return fmt.Errorf("list sweep candidates: %w", err)
	}

	var changes []statusChange
	for _, w := range candidates {
		days := int(w.DormantFor(now).Hours() / 24)
		switch {
		case w.Status == domain.WalletStatusInactive && days >= s.suspensionDays:
			changes = append(changes, statusChange{
				wallet: w,
				status: domain.WalletStatusSuspended,
				action: domain.AuditActionSuspend,
				reason: fmt.Sprintf("No activity for %d days", s.suspensionDays),
			})
		case w.Status == domain.WalletStatusActive && days >= s.inactiveDays:
			changes = append(changes, statusChange{
				wallet: w,
				status: domain.WalletStatusInactive,
				action: domain.AuditActionInactive,
				reason: fmt.Sprintf("No activity for %d days", s.inactiveDays),
			})
		}
	}

	if len(changes) == 0 {
		s.log.Debug().Int("candidates", len(candidates)).Msg("dormancy sweep found nothing to demote")
		return nil
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, c := range changes {
		if err := s.walletRepo.UpdateStatus(ctx, tx, c.wallet.ID, c.status, now); err != nil {
			return fmt.Errorf("update status for wallet %s: %w", c.wallet.WalletID, err)
		}
		entry := &domain.AuditEntry{
			ID:          uuid.New(),
			Action:      c.action,
			WalletID:    c.wallet.WalletID,
			PerformedBy: s.systemActor,
			Reason:      c.reason,
			CreatedAt:   now,
		}
		if err := s.auditRepo.Create(ctx, tx, entry); err != nil {
			return fmt.Errorf("create audit entry for wallet %s: %w", c.wallet.WalletID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	for _, c := range changes {
		event := domain.Event{
			Kind:       domain.EventStatusChanged,
			UserID:     c.wallet.UserID,
			WalletID:   c.wallet.WalletID,
			Status:     c.status,
			Reason:     c.reason,
			OccurredAt: now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("wallet_id", c.wallet.WalletID).Msg("failed to publish status change event")
		}
	}

	s.log.Info().
		Int("candidates", len(candidates)).
		Int("demoted", len(changes)).
		Msg("dormancy sweep completed")
	return nil
}
