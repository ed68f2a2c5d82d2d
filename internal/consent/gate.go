package consent

import (
	"time"

	"pathway/internal/event"
	id "pathway/pkg/domain"
)

// Gate decides, per event, whether processing may proceed and at what privacy
// tier. This is pure domain logic - no I/O, no side effects.
type Gate struct {
	// gracePeriod extends expired consent before failing closed. The source
	// policy is ambiguous here, so it is configurable; zero means strict.
	gracePeriod time.Duration
}

// NewGate builds a gate with the given expiry grace period.
func NewGate(gracePeriod time.Duration) *Gate {
	return &Gate{gracePeriod: gracePeriod}
}

// Authorize applies the consent rule chain (fail-closed):
//  1. Parental consent required but never granted: deny everything.
//  2. Revoked or expired grant: deny everything.
//  3. Tier minimal: aggregate only, no per-student trace.
//  4. Tier standard/enhanced: both; standard strips behavioral fields.
func (g *Gate) Authorize(record Record, now time.Time) Authorization {
	if record.ParentalConsentRequired && record.GrantedAt.IsZero() {
		return Denied()
	}
	if !record.IsActive(now, g.gracePeriod) {
		return Denied()
	}

	switch record.Tier {
	case id.TierMinimal:
		return Authorization{Tier: id.TierMinimal, AllowAggregate: true}
	case id.TierStandard, id.TierEnhanced:
		return Authorization{
			Tier:              record.Tier,
			AllowIdentifiable: true,
			AllowAggregate:    true,
		}
	}
	return Denied()
}

// Redact applies tier-specific field stripping to an event before it is
// retained in identifiable form. Standard-tier students keep their progress
// but behavioral-pattern fields never leave the gate.
func (g *Gate) Redact(ev event.InteractionEvent, authz Authorization) event.InteractionEvent {
	if authz.Tier == id.TierEnhanced || ev.Payload == nil {
		return ev
	}
	ev.Payload = ev.Payload.StripBehavioral()
	return ev
}
