package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/msomdec/recipe-api/internal/service"
)

func TestRateLimiter_AllowsUpToBurst(t *testing.T) {
	rl := service.NewRateLimiter(0.001, 3)
	defer rl.Stop()

	for i := range 3 {
		assert.True(t, rl.Allow("test-key"), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("test-key"), "4th request should be denied")
}

func TestRateLimiter_DifferentKeysAreIndependent(t *testing.T) {
	rl := service.NewRateLimiter(0.001, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("ip-a"))
	assert.False(t, rl.Allow("ip-a"))
	assert.True(t, rl.Allow("ip-b"), "ip-b has its own bucket")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := service.NewRateLimiter(1, 1)
	rl.Stop()
	rl.Stop()
}
