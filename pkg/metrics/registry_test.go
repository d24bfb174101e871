package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
	assert.Nil(t, Handler())
	assert.Nil(t, NewLineMetrics())
	assert.Nil(t, NewTrafficMetrics())

	reg := InitRegistry()
	require.NotNil(t, reg)
	assert.Same(t, reg, InitRegistry())
	assert.True(t, IsEnabled())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
