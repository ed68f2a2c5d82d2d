package domain

import dErrors "pathway/pkg/domain-errors"

// PrivacyTier is the level of data processing a student (or their guardian)
// has consented to. Tiers are ordered: none < minimal < standard < enhanced.
type PrivacyTier string

// Supported privacy tiers.
const (
	// TierNone permits nothing. Events from students at this tier are
	// discarded after transient validation.
	TierNone PrivacyTier = "none"
	// TierMinimal permits anonymous aggregation only; no per-student state.
	TierMinimal PrivacyTier = "minimal"
	// TierStandard permits identifiable progress tracking with behavioral
	// payload fields stripped.
	TierStandard PrivacyTier = "standard"
	// TierEnhanced additionally retains behavioral-pattern fields.
	TierEnhanced PrivacyTier = "enhanced"
)

// tierRank orders tiers for comparisons. Higher rank means broader consent.
var tierRank = map[PrivacyTier]int{
	TierNone:     0,
	TierMinimal:  1,
	TierStandard: 2,
	TierEnhanced: 3,
}

// ParsePrivacyTier constructs a PrivacyTier from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParsePrivacyTier(s string) (PrivacyTier, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "privacy tier cannot be empty")
	}
	t := PrivacyTier(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown privacy tier: "+s)
	}
	return t, nil
}

// IsValid checks if the tier is one of the supported enum values.
func (t PrivacyTier) IsValid() bool {
	_, ok := tierRank[t]
	return ok
}

// AtLeast reports whether t grants at least as much as other.
func (t PrivacyTier) AtLeast(other PrivacyTier) bool {
	return tierRank[t] >= tierRank[other]
}

// String returns the string representation of the tier.
func (t PrivacyTier) String() string {
	return string(t)
}
