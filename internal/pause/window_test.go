package pause

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shaiso/testgen/internal/domain"
)

const service = "http://api.example.com"

var t0 = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestNew_StartsActive(t *testing.T) {
	w := New(service, t0)

	assert.False(t, w.IsSuppressed(t0))
	assert.False(t, w.IsSuppressed(t0.Add(time.Second)))
	assert.Equal(t, t0.UnixMilli(), w.ExpiresAt().UnixMilli())
	assert.Equal(t, service, w.Service())
}

func TestApply_SuppressesUntilDeadline(t *testing.T) {
	w := New(service, t0)
	until := t0.Add(time.Minute)

	applied := w.Apply(domain.PauseRequest{Service: service, Until: until.UnixMilli()})

	assert.True(t, applied)
	assert.True(t, w.IsSuppressed(t0))
	assert.True(t, w.IsSuppressed(until.Add(-time.Millisecond)))
	assert.False(t, w.IsSuppressed(until))
	assert.False(t, w.IsSuppressed(until.Add(time.Second)))
}

func TestApply_PastDeadlineLiftsPause(t *testing.T) {
	w := New(service, t0)
	w.Apply(domain.PauseRequest{Service: service, Until: t0.Add(time.Hour).UnixMilli()})
	assert.True(t, w.IsSuppressed(t0))

	w.Apply(domain.PauseRequest{Service: service, Until: t0.Add(-time.Hour).UnixMilli()})

	assert.False(t, w.IsSuppressed(t0))
}

func TestApply_OtherServiceIgnored(t *testing.T) {
	w := New(service, t0)

	applied := w.Apply(domain.PauseRequest{
		Service: "http://other.example.com",
		Until:   t0.Add(time.Hour).UnixMilli(),
	})

	assert.False(t, applied)
	assert.False(t, w.IsSuppressed(t0))
	assert.Equal(t, t0.UnixMilli(), w.ExpiresAt().UnixMilli())
}

func TestApply_TrailingSlashIsSameService(t *testing.T) {
	w := New(service, t0)

	assert.True(t, w.Apply(domain.PauseRequest{Service: service + "/", Until: t0.Add(time.Hour).UnixMilli()}))
	assert.True(t, w.IsSuppressed(t0))
}

// Для любой последовательности запросов результат определяется последним
// применённым запросом своего сервиса.
func TestApply_LastWriteWinsProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	services := []string{service, "http://other.example.com", "http://third.example.com"}

	for iter := 0; iter < 200; iter++ {
		w := New(service, t0)
		lastUntil := t0.UnixMilli()

		for i := 0; i < 1+rng.IntN(20); i++ {
			req := domain.PauseRequest{
				Service: services[rng.IntN(len(services))],
				Until:   t0.Add(time.Duration(rng.IntN(7200)-3600) * time.Second).UnixMilli(),
			}
			if w.Apply(req) {
				lastUntil = req.Until
			}
		}

		now := t0.Add(time.Duration(rng.IntN(7200)-3600) * time.Second)
		assert.Equal(t, now.UnixMilli() < lastUntil, w.IsSuppressed(now), "iteration %d", iter)
		assert.Equal(t, lastUntil, w.ExpiresAt().UnixMilli())
	}
}

func TestWindow_ConcurrentReadersAndWriter(t *testing.T) {
	w := New(service, t0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			w.Apply(domain.PauseRequest{Service: service, Until: t0.Add(time.Duration(i) * time.Millisecond).UnixMilli()})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = w.IsSuppressed(t0)
		}
	}()
	wg.Wait()

	assert.Equal(t, t0.Add(999*time.Millisecond).UnixMilli(), w.ExpiresAt().UnixMilli())
}
