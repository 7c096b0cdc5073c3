package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubChecker struct {
	name    string
	healthy atomic.Bool
}

func (s *stubChecker) Name() string                               { return s.name }
func (s *stubChecker) IsHealthy() bool                            { return s.healthy.Load() }
func (s *stubChecker) Start(ctx context.Context, _ time.Duration) {}

func waitFor(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestServiceHealthFollowsDependencies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &stubChecker{name: "store"}
	store.healthy.Store(true)

	svc := NewServiceHealthChecker(zerolog.Nop(), store)
	go svc.Start(ctx, 10*time.Millisecond)

	waitFor(t, svc.IsHealthy)

	store.healthy.Store(false)
	waitFor(t, func() bool { return !svc.IsHealthy() })

	store.healthy.Store(true)
	waitFor(t, svc.IsHealthy)
}

func TestServiceHealthStartsDown(t *testing.T) {
	store := &stubChecker{name: "store"}
	svc := NewServiceHealthChecker(zerolog.Nop(), store)
	if svc.IsHealthy() {
		t.Fatal("service reported healthy before any probe")
	}
}
