package keyset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "verigate/pkg/domain-errors"
)

func TestSet(t *testing.T) {
	hashed, err := Hash("hashed-secret")
	require.NoError(t, err)

	set := New([]string{"plain-secret", " ", hashed})
	assert.Equal(t, 2, set.Len())

	t.Run("plaintext key matches", func(t *testing.T) {
		assert.True(t, set.IsPrivileged("plain-secret"))
	})
	t.Run("hashed key matches", func(t *testing.T) {
		assert.True(t, set.IsPrivileged("hashed-secret"))
	})
	t.Run("hash itself is not a key", func(t *testing.T) {
		assert.False(t, set.IsPrivileged(hashed))
	})
	t.Run("unknown and empty keys are rejected", func(t *testing.T) {
		assert.False(t, set.IsPrivileged("nope"))
		assert.False(t, set.IsPrivileged(""))
		assert.False(t, set.IsPrivileged("   "))
	})
	t.Run("prefix of a key is rejected", func(t *testing.T) {
		assert.False(t, set.IsPrivileged("plain"))
	})
	t.Run("nil set admits nothing", func(t *testing.T) {
		var empty *Set
		assert.False(t, empty.IsPrivileged("plain-secret"))
		assert.Zero(t, empty.Len())
	})
}

func TestHash(t *testing.T) {
	_, err := Hash("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
