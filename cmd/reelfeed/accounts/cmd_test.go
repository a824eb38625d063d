package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrowawaySecret(t *testing.T) {
	first, err := throwawaySecret()
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := throwawaySecret()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
