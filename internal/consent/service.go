package consent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "pathway/pkg/domain"
	dErrors "pathway/pkg/domain-errors"
	"pathway/pkg/platform/audit"
	"pathway/pkg/platform/sentinel"
	"pathway/pkg/requestcontext"
)

// WithdrawalHook is invoked after a revocation is persisted. The progress
// ledger registers one to purge the student's state in the same operation.
type WithdrawalHook func(ctx context.Context, ref id.StudentRef) error

// Service persists consent decisions and runs withdrawal hooks. It keeps
// orchestration out of handlers and domain logic thin.
type Service struct {
	store   Store
	auditor *audit.Publisher
	logger  *slog.Logger
	hooks   []WithdrawalHook
}

func NewService(store Store, auditor *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

// OnWithdrawal registers a hook to run when consent is revoked. Hooks run in
// registration order; the first failure aborts the revocation.
func (s *Service) OnWithdrawal(hook WithdrawalHook) {
	s.hooks = append(s.hooks, hook)
}

// Grant records a consent decision for a student.
func (s *Service) Grant(ctx context.Context, ref id.StudentRef, tier id.PrivacyTier, ttl time.Duration, parental bool) (Record, error) {
	if !tier.IsValid() {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "invalid privacy tier: "+tier.String())
	}
	now := requestcontext.Now(ctx)
	record := Record{
		StudentRef:              ref,
		Tier:                    tier,
		GrantedAt:               now,
		ParentalConsentRequired: parental,
	}
	if ttl > 0 {
		record.ExpiresAt = now.Add(ttl)
	}
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(dErrors.CodeUnavailable, "failed to save consent", err)
	}
	// Compliance event: fail closed. A grant the trail cannot prove did not
	// happen.
	if err := s.auditor.EmitSync(ctx, audit.Event{
		StudentRef: ref,
		Action:     audit.ActionConsentGranted,
		Tier:       tier.String(),
		RequestID:  requestcontext.RequestID(ctx),
	}); err != nil {
		return Record{}, dErrors.Wrap(dErrors.CodeUnavailable, "consent audit failed", err)
	}
	return record, nil
}

// Get loads the student's consent record. A missing record is returned as a
// tier-none record so callers always fail closed rather than branching on
// not-found.
func (s *Service) Get(ctx context.Context, ref id.StudentRef) (Record, error) {
	record, err := s.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{StudentRef: ref, Tier: id.TierNone}, nil
		}
		return Record{}, dErrors.Wrap(dErrors.CodeUnavailable, "failed to load consent", err)
	}
	return record, nil
}

// Revoke withdraws consent and runs all withdrawal hooks. The student's
// progress state is purged by the ledger's hook before Revoke returns.
func (s *Service) Revoke(ctx context.Context, ref id.StudentRef) error {
	now := requestcontext.Now(ctx)
	if err := s.store.Revoke(ctx, ref, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no consent record for student")
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "failed to revoke consent", err)
	}

	for _, hook := range s.hooks {
		if err := hook(ctx, ref); err != nil {
			s.logger.ErrorContext(ctx, "withdrawal hook failed",
				"student_ref", ref.String(),
				"error", err,
			)
			return dErrors.Wrap(dErrors.CodeUnavailable, "withdrawal processing failed", err)
		}
	}

	if err := s.auditor.EmitSync(ctx, audit.Event{
		StudentRef: ref,
		Action:     audit.ActionConsentRevoked,
		RequestID:  requestcontext.RequestID(ctx),
	}); err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "consent audit failed", err)
	}
	return nil
}
