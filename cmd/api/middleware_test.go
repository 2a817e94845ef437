package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimit(t *testing.T) {
	app := newTestApplication(t)
	app.config.limiter.enabled = true
	app.config.limiter.rps = 0.001
	app.config.limiter.burst = 2
	app.shutdown = make(chan struct{})
	t.Cleanup(func() { close(app.shutdown) })

	handler := app.routes()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := newRecorderFor(handler, http.MethodGet, "/v1/healthcheck")
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestClientLimitersSweep(t *testing.T) {
	limiters := &clientLimiters{clients: map[string]*client{
		"192.0.2.1": {limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)},
		"192.0.2.2": {limiter: rate.NewLimiter(1, 1), lastSeen: time.Now()},
	}}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		limiters.sweep(done, time.Millisecond, time.Minute)
		close(stopped)
	}()

	require.Eventually(t, func() bool {
		limiters.mu.Lock()
		defer limiters.mu.Unlock()
		_, stale := limiters.clients["192.0.2.1"]
		return !stale
	}, time.Second, time.Millisecond)

	limiters.mu.Lock()
	assert.Contains(t, limiters.clients, "192.0.2.2")
	limiters.mu.Unlock()

	close(done)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweep kept running after done was closed")
	}
}
