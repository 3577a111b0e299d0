package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/emilydias-boop/mcf-insight-hub/internal/domain"
	"github.com/emilydias-boop/mcf-insight-hub/internal/domain/ports"
	serviceports "github.com/emilydias-boop/mcf-insight-hub/internal/services/ports"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/observability"
	"github.com/emilydias-boop/mcf-insight-hub/pkg/timeutil"
)

// LadderSource resolves tier ladders by name
type LadderSource interface {
	Ladder(name string) (*domain.TierLadder, error)
}

// payoutService implements the PayoutService port
type payoutService struct {
	db         ports.DBPort
	payoutRepo ports.PayoutRepository
	ladders    LadderSource
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewPayoutService creates a new payout service
func NewPayoutService(
	db ports.DBPort,
	payoutRepo ports.PayoutRepository,
	ladders LadderSource,
	logger *zap.Logger,
) serviceports.PayoutService {
	return &payoutService{
		db:         db,
		payoutRepo: payoutRepo,
		ladders:    ladders,
		validate:   validator.New(),
		logger:     logger,
	}
}

// CreateDraft resolves the multiplier and persists a draft payout
func (s *payoutService) CreateDraft(ctx context.Context, req *serviceports.CreatePayoutRequest) (*domain.Payout, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	s.logger.Info("Creating draft payout",
		zap.String("person_id", req.PersonID),
		zap.String("period", req.PeriodKey),
		zap.String("ladder", req.LadderName),
	)

	ladder, err := s.ladders.Ladder(req.LadderName)
	if err != nil {
		// the name comes from the client; a stored payout's ladder going missing stays a config error
		if domain.IsConfigurationError(err) {
			return nil, domain.NewValidationError("unknown ladder %q", req.LadderName).
				WithDetail("field", "ladder_name")
		}
		return nil, err
	}

	payout, err := domain.NewPayout(uuid.New().String(), req.PersonID, req.PeriodKey,
		req.BaseFixed, req.BaseVariable, req.AchievedPct, ladder)
	if err != nil {
		return nil, err
	}

	if err := s.payoutRepo.Create(ctx, nil, payout); err != nil {
		observability.RecordPayoutTransition(string(domain.PayoutStatusDraft), "failed")
		s.logger.Error("Failed to create payout",
			zap.String("person_id", req.PersonID),
			zap.String("period", req.PeriodKey),
			zap.Error(err),
		)
		return nil, err
	}

	observability.RecordPayoutTransition(string(domain.PayoutStatusDraft), "success")
	s.logger.Info("Draft payout created",
		zap.String("payout_id", payout.ID),
		zap.String("multiplier", payout.Multiplier.String()),
		zap.String("total_payable", payout.TotalPayable.StringFixed(2)),
	)

	return payout, nil
}

// Recalculate re-resolves the multiplier of a draft payout for a new achievement
func (s *payoutService) Recalculate(ctx context.Context, req *serviceports.RecalculatePayoutRequest) (*domain.Payout, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, req.PayoutID, req.ExpectedVersion, "recalculate", func(p *domain.Payout) error {
		ladder, err := s.ladders.Ladder(p.LadderName)
		if err != nil {
			return err
		}
		return p.Recalculate(req.AchievedPct, ladder)
	})
}

// AddAdjustment appends a ledger entry and recomputes the payable total
func (s *payoutService) AddAdjustment(ctx context.Context, req *serviceports.AddAdjustmentRequest) (*domain.Payout, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	adj, err := domain.NewAdjustment(uuid.New().String(), req.PayoutID, req.Kind, req.Amount, req.Reason, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	var updated *domain.Payout
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.payoutRepo.GetByID(ctx, tx, req.PayoutID)
		if err != nil {
			return err
		}

		next, err := domain.ApplyAdjustment(current, adj)
		if err != nil {
			return err
		}

		if err := s.payoutRepo.InsertAdjustment(ctx, tx, adj); err != nil {
			return fmt.Errorf("insert adjustment: %w", err)
		}
		if err := s.payoutRepo.Update(ctx, tx, next, current.Version); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		s.recordFailure("adjust", req.PayoutID, err)
		return nil, err
	}

	observability.RecordPayoutAdjustment(string(adj.Kind))
	s.logger.Info("Payout adjustment recorded",
		zap.String("payout_id", updated.ID),
		zap.String("adjustment_id", adj.ID),
		zap.String("kind", string(adj.Kind)),
		zap.String("amount", adj.Amount.StringFixed(2)),
		zap.String("created_by", adj.CreatedBy),
		zap.String("total_payable", updated.TotalPayable.StringFixed(2)),
	)

	return updated, nil
}

// Approve moves a draft payout to approved
func (s *payoutService) Approve(ctx context.Context, payoutID, approverID string) (*domain.Payout, error) {
	return s.mutate(ctx, payoutID, 0, string(domain.PayoutStatusApproved), func(p *domain.Payout) error {
		return p.Approve(approverID)
	})
}

// Lock closes an approved payout
func (s *payoutService) Lock(ctx context.Context, payoutID string) (*domain.Payout, error) {
	return s.mutate(ctx, payoutID, 0, string(domain.PayoutStatusLocked), func(p *domain.Payout) error {
		return p.Lock()
	})
}

// Get retrieves a payout with its adjustments
func (s *payoutService) Get(ctx context.Context, payoutID string) (*domain.Payout, error) {
	if payoutID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payout id is required")
	}
	return s.payoutRepo.GetByID(ctx, nil, payoutID)
}

// ListByPeriod lists payouts for a YYYY-MM period
func (s *payoutService) ListByPeriod(ctx context.Context, periodKey string) ([]*domain.Payout, error) {
	if err := timeutil.ValidatePeriodKey(periodKey); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeValidationFailed, "invalid period key", err).
			WithDetail("field", "period")
	}
	return s.payoutRepo.ListByPeriod(ctx, nil, periodKey)
}

// mutate loads a payout, applies fn to a copy and writes it back under the
// version it was read with. expectedVersion > 0 also pins the version the
// caller last saw.
func (s *payoutService) mutate(ctx context.Context, payoutID string, expectedVersion int64, action string, fn func(*domain.Payout) error) (*domain.Payout, error) {
	if payoutID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "payout id is required")
	}

	var updated *domain.Payout
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		current, err := s.payoutRepo.GetByID(ctx, tx, payoutID)
		if err != nil {
			return err
		}
		if expectedVersion > 0 && current.Version != expectedVersion {
			return domain.NewDomainError(domain.ErrorCodePayoutVersionConflict,
				fmt.Sprintf("payout %s is at version %d, expected %d", payoutID, current.Version, expectedVersion)).
				WithDetail("payout_id", payoutID)
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := s.payoutRepo.Update(ctx, tx, next, current.Version); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		s.recordFailure(action, payoutID, err)
		return nil, err
	}

	observability.RecordPayoutTransition(action, "success")
	s.logger.Info("Payout updated",
		zap.String("payout_id", updated.ID),
		zap.String("action", action),
		zap.String("status", string(updated.Status)),
		zap.Int64("version", updated.Version),
	)

	return updated, nil
}

func (s *payoutService) recordFailure(action, payoutID string, err error) {
	if domain.IsDomainError(err, domain.ErrorCodePayoutVersionConflict) {
		observability.RecordPayoutVersionConflict()
	}
	observability.RecordPayoutTransition(action, "failed")

	fields := []zap.Field{
		zap.String("payout_id", payoutID),
		zap.String("action", action),
		zap.String("code", string(domain.GetErrorCode(err))),
		zap.Error(err),
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		s.logger.Warn("Payout change rejected", fields...)
		return
	}
	s.logger.Error("Payout change failed", fields...)
}

func (s *payoutService) validateRequest(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		return domain.WrapError(domain.ErrorCodeValidationFailed, "invalid request", err)
	}
	return nil
}
