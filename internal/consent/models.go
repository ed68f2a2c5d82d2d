package consent

import (
	"time"

	id "pathway/pkg/domain"
)

// Record captures a student's (or guardian's) consent decision. Mutated only
// by explicit grant/revoke operations; everything downstream treats it as
// read-only input.
type Record struct {
	StudentRef id.StudentRef
	Tier       id.PrivacyTier
	GrantedAt  time.Time
	// ExpiresAt zero means the grant does not expire.
	ExpiresAt time.Time
	RevokedAt *time.Time
	// ParentalConsentRequired flags students under the COPPA age threshold.
	// Without an active grant they produce tier-none records only.
	ParentalConsentRequired bool
}

// IsActive returns true when consent is currently valid. An expired grant may
// survive inside the configured grace period; zero grace means strict expiry.
func (r Record) IsActive(now time.Time, grace time.Duration) bool {
	if r.RevokedAt != nil && !r.RevokedAt.After(now) {
		return false
	}
	if r.Tier == id.TierNone {
		return false
	}
	if r.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(r.ExpiresAt.Add(grace))
}

// Authorization is the gate's per-event decision. Both flags false means the
// caller must neither persist nor aggregate anything from the event.
type Authorization struct {
	Tier id.PrivacyTier
	// AllowIdentifiable permits per-student progress state.
	AllowIdentifiable bool
	// AllowAggregate permits anonymous cohort aggregation.
	AllowAggregate bool
}

// Denied is the fail-closed authorization.
func Denied() Authorization {
	return Authorization{Tier: id.TierNone}
}
