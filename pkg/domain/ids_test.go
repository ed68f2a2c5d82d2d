package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pathway/pkg/domain-errors"
)

func TestPseudonymizeStudent(t *testing.T) {
	key := []byte("deployment-key")

	ref, err := PseudonymizeStudent("upstream-123", key)
	require.NoError(t, err)
	assert.Len(t, ref.String(), 64)

	t.Run("deterministic for same input", func(t *testing.T) {
		again, err := PseudonymizeStudent("upstream-123", key)
		require.NoError(t, err)
		assert.Equal(t, ref, again)
	})

	t.Run("different key yields different ref", func(t *testing.T) {
		other, err := PseudonymizeStudent("upstream-123", []byte("other-key"))
		require.NoError(t, err)
		assert.NotEqual(t, ref, other)
	})

	t.Run("empty identity rejected", func(t *testing.T) {
		_, err := PseudonymizeStudent("", key)
		assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	t.Run("round-trips through ParseStudentRef", func(t *testing.T) {
		parsed, err := ParseStudentRef(ref.String())
		require.NoError(t, err)
		assert.Equal(t, ref, parsed)
	})
}

func TestParseStudentRef(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid hex digest", strings.Repeat("ab", 32), true},
		{"empty", "", false},
		{"too short", "abcd", false},
		{"not hex", strings.Repeat("zz", 32), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStudentRef(tt.input)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
			}
		})
	}
}

func TestParseObjectiveID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"simple slug", "algebra-1", true},
		{"with namespace", "math:algebra-1", true},
		{"underscores", "intro_to_fractions", true},
		{"empty", "", false},
		{"uppercase rejected", "Algebra-1", false},
		{"spaces rejected", "algebra 1", false},
		{"too long", strings.Repeat("a", 129), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseObjectiveID(tt.input)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.input, got.String())
			} else {
				assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
			}
		})
	}
}

func TestParseEventKind(t *testing.T) {
	for _, kind := range []string{"view", "navigate", "answer", "practice", "reflect", "reset"} {
		k, err := ParseEventKind(kind)
		require.NoError(t, err, kind)
		assert.True(t, k.IsValid())
	}

	_, err := ParseEventKind("scroll")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))

	_, err = ParseEventKind("")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestPrivacyTierOrdering(t *testing.T) {
	assert.True(t, TierEnhanced.AtLeast(TierStandard))
	assert.True(t, TierStandard.AtLeast(TierMinimal))
	assert.True(t, TierMinimal.AtLeast(TierNone))
	assert.False(t, TierNone.AtLeast(TierMinimal))
	assert.True(t, TierStandard.AtLeast(TierStandard))

	_, err := ParsePrivacyTier("full")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}
