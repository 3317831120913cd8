package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSpecsAreNamedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, spec := range indexSpecs() {
		require.NotNil(t, spec.model.Options)
		require.NotNil(t, spec.model.Options.Name)
		key := spec.collection + "." + *spec.model.Options.Name
		assert.False(t, seen[key], "duplicate index %s", key)
		seen[key] = true
	}

	assert.True(t, seen["orders.orderId_unique"])
	assert.True(t, seen["coupons.code_unique"])
	assert.True(t, seen["users.email_unique"])
}
