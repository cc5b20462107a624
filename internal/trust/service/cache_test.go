package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustgate/internal/trust/models"
)

func TestAssessmentCacheEvictsOldest(t *testing.T) {
	cache := newAssessmentCache(2)

	cache.put("u1", "d1", models.TrustAssessment{TrustLevel: 0.1})
	cache.put("u2", "d2", models.TrustAssessment{TrustLevel: 0.2})
	cache.put("u3", "d3", models.TrustAssessment{TrustLevel: 0.3})

	_, ok := cache.get("u1", "d1")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = cache.get("u2", "d2")
	assert.True(t, ok)
	_, ok = cache.get("u3", "d3")
	assert.True(t, ok)
}

func TestAssessmentCacheRecencyOnReadAndWrite(t *testing.T) {
	cache := newAssessmentCache(2)

	cache.put("u1", "d1", models.TrustAssessment{TrustLevel: 0.1})
	cache.put("u2", "d2", models.TrustAssessment{TrustLevel: 0.2})

	// Touching u1 makes u2 the eviction candidate.
	_, ok := cache.get("u1", "d1")
	require.True(t, ok)

	cache.put("u3", "d3", models.TrustAssessment{TrustLevel: 0.3})
	_, ok = cache.get("u2", "d2")
	assert.False(t, ok)
	_, ok = cache.get("u1", "d1")
	assert.True(t, ok)
}

func TestAssessmentCacheReplacesInPlace(t *testing.T) {
	cache := newAssessmentCache(2)

	cache.put("u1", "d1", models.TrustAssessment{TrustLevel: 0.1})
	cache.put("u1", "d1", models.TrustAssessment{TrustLevel: 0.9})

	got, ok := cache.get("u1", "d1")
	require.True(t, ok)
	assert.Equal(t, 0.9, got.TrustLevel)
}

func TestAssessmentCacheStaysBounded(t *testing.T) {
	cache := newAssessmentCache(8)
	for i := 0; i < 100; i++ {
		cache.put(fmt.Sprintf("u%d", i), "d", models.TrustAssessment{})
	}
	assert.Equal(t, 8, cache.order.Len())
	assert.Len(t, cache.entries, 8)
}
