package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	dErrors "pathway/pkg/domain-errors"
)

// StudentRef is a pseudonymous student identifier. It is always a hex-encoded
// keyed hash of the upstream identity; raw PII never enters this system.
//
// Usage: construct via PseudonymizeStudent at the collection boundary, or via
// ParseStudentRef when the caller already holds a pseudonymized value.
type StudentRef string

// studentRefLen is the hex length of a blake2b-256 digest.
const studentRefLen = 64

// PseudonymizeStudent derives a StudentRef from an upstream identity using a
// keyed blake2b-256 hash. The key belongs to the deployment, so refs from
// different deployments cannot be correlated.
func PseudonymizeStudent(upstreamID string, key []byte) (StudentRef, error) {
	if upstreamID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "upstream identity cannot be empty")
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid pseudonymization key")
	}
	h.Write([]byte(upstreamID))
	return StudentRef(hex.EncodeToString(h.Sum(nil))), nil
}

// ParseStudentRef constructs a StudentRef from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or not a hex digest
// of the expected length; no other errors are expected.
func ParseStudentRef(s string) (StudentRef, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "student ref cannot be empty")
	}
	if len(s) != studentRefLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "student ref has wrong length")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "student ref must be hex encoded")
	}
	return StudentRef(strings.ToLower(s)), nil
}

func (r StudentRef) String() string { return string(r) }

// IsZero reports whether the ref is unset.
func (r StudentRef) IsZero() bool { return r == "" }

// ObjectiveID identifies a learning objective, e.g. "algebra-1".
type ObjectiveID string

// ParseObjectiveID constructs an ObjectiveID from external input.
func ParseObjectiveID(s string) (ObjectiveID, error) {
	if err := validateSlug(s, "objective id"); err != nil {
		return "", err
	}
	return ObjectiveID(s), nil
}

func (o ObjectiveID) String() string { return string(o) }

// SectionID identifies one section within an objective.
type SectionID string

// ParseSectionID constructs a SectionID from external input.
func ParseSectionID(s string) (SectionID, error) {
	if err := validateSlug(s, "section id"); err != nil {
		return "", err
	}
	return SectionID(s), nil
}

func (s SectionID) String() string { return string(s) }

// CohortKey buckets students for aggregate analytics, e.g. "algebra-1:beginner".
// It must never encode a student identity.
type CohortKey string

// ParseCohortKey constructs a CohortKey from external input.
func ParseCohortKey(s string) (CohortKey, error) {
	if err := validateSlug(s, "cohort key"); err != nil {
		return "", err
	}
	return CohortKey(s), nil
}

func (c CohortKey) String() string { return string(c) }

const maxSlugLen = 128

// validateSlug enforces the shared shape of human-assigned identifiers:
// non-empty, bounded, lowercase alphanumerics plus '-', '_', ':'.
func validateSlug(s, what string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	if len(s) > maxSlugLen {
		return dErrors.New(dErrors.CodeInvalidInput, what+" is too long")
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == ':':
		default:
			return dErrors.New(dErrors.CodeInvalidInput, what+" contains invalid characters")
		}
	}
	return nil
}
