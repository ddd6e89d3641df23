package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verigate/pkg/domain-errors"
)

func TestParseSubjectID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSubjectID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSubjectID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseSubjectID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseSubjectID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, SubjectID(valid), id)
		assert.Equal(t, valid.String(), id.String())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE app_users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubjectID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Run("parses known outcomes", func(t *testing.T) {
		s, err := ParseStatus("verified")
		require.NoError(t, err)
		assert.True(t, s.IsVerified())

		s, err = ParseStatus("non_verified")
		require.NoError(t, err)
		assert.False(t, s.IsVerified())
	})

	t.Run("rejects anything else", func(t *testing.T) {
		_, err := ParseStatus("pending")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestValidScoreBin(t *testing.T) {
	for _, ok := range []string{"0.8-0.9", "1.0-1.0", "0-1", "0.0-0.5", "10-20"} {
		assert.True(t, ValidScoreBin(ok), ok)
	}
	for _, bad := range []string{"", "high", "0.8", "0.8-", "-0.9", "0.8 - 0.9", "a-b"} {
		assert.False(t, ValidScoreBin(bad), bad)
	}
}

func TestSubjectIDText(t *testing.T) {
	id := SubjectID(uuid.New())
	b, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(b))

	var back SubjectID
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, id, back)
	assert.Error(t, back.UnmarshalText([]byte("nope")))
}
