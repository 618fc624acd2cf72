package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/flight-auth/internal/domain"
)

func TestInMemoryDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var got []Event
	d.Subscribe(EventLoginSucceeded, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventLoginFailed, func(context.Context, Event) error {
		t.Fatal("unexpected delivery")
		return nil
	})

	event := NewEvent(EventLoginSucceeded, Actor{Kind: domain.PrincipalUser, Key: "a@x.com"}, LoginSucceededPayload{Role: domain.RoleUser})
	require.NoError(t, d.Publish(context.Background(), event))

	require.Len(t, got, 1)
	assert.Equal(t, event.ID, got[0].ID)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestInMemoryDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	calls := 0
	d.Subscribe(EventTokenRefreshed, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventTokenRefreshed, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTokenRefreshed, Actor{}, nil)))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}
