package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct{}

func (testEvent) Subject() string          { return "test.subject" }
func (testEvent) Payload() ([]byte, error) { return []byte("{}"), nil }

type stubPublisher struct {
	calls int
	err   error
}

func (p *stubPublisher) Publish(context.Context, Event) error {
	p.calls++
	return p.err
}

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		ConsecutiveFailures: 2,
		ErrorRatePercent:    50,
		OpenTimeout:         time.Minute,
		HalfOpenRequests:    1,
	}
}

func Test_BreakerPublisher_TripsOpen(t *testing.T) {
	// given
	ctx := context.Background()
	next := &stubPublisher{err: errors.New("broker down")}
	p := NewBreakerPublisher("test", next, breakerConfig())
	// when
	err1 := p.Publish(ctx, testEvent{})
	err2 := p.Publish(ctx, testEvent{})
	err3 := p.Publish(ctx, testEvent{})
	// then
	assert.EqualError(t, err1, "broker down")
	assert.EqualError(t, err2, "broker down")
	assert.ErrorIs(t, err3, ErrPublisherUnavailable)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, "open", p.State())
}

func Test_BreakerPublisher_CancellationIsNotAFailure(t *testing.T) {
	// given
	next := &stubPublisher{err: context.Canceled}
	p := NewBreakerPublisher("test", next, breakerConfig())
	// when
	for range 5 {
		err := p.Publish(context.Background(), testEvent{})
		require.ErrorIs(t, err, context.Canceled)
	}
	// then
	assert.Equal(t, 5, next.calls)
	assert.Equal(t, "closed", p.State())
}

func Test_BreakerPublisher_PassesThroughSuccess(t *testing.T) {
	// given
	next := &stubPublisher{}
	p := NewBreakerPublisher("test", next, breakerConfig())
	// when
	err := p.Publish(context.Background(), testEvent{})
	// then
	assert.NoError(t, err)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "closed", p.State())
}

func Test_NopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), testEvent{}))
}
