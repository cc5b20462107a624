package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	events []Event
	fail   bool
}

func (s *recordingStore) Append(_ context.Context, event Event) error {
	if s.fail {
		return errors.New("append failed")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	if limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Emit(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	return nil
}

func TestEmitFillsDefaults(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store)

	err := p.Emit(context.Background(), Event{Actor: "user-1", Action: ActionAccessGranted})
	require.NoError(t, err)
	require.Len(t, store.events, 1)

	got := store.events[0]
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Timestamp.IsZero())
	assert.Equal(t, CategoryCompliance, got.Category)
}

func TestEmitPreservesExplicitFields(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store)

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	err := p.Emit(context.Background(), Event{
		ID:        "fixed",
		Category:  CategoryOperations,
		Timestamp: ts,
		Actor:     "user-1",
		Action:    ActionAccessGranted,
	})
	require.NoError(t, err)

	got := store.events[0]
	assert.Equal(t, "fixed", got.ID)
	assert.Equal(t, ts, got.Timestamp)
	assert.Equal(t, CategoryOperations, got.Category)
}

func TestEmitFansOutToSink(t *testing.T) {
	store := &recordingStore{}
	sink := &recordingSink{}
	p := NewPublisher(store, WithSink(sink))

	require.NoError(t, p.Emit(context.Background(), Event{Actor: "u", Action: ActionTrustAssessed}))
	require.Len(t, sink.events, 1)
	assert.Equal(t, store.events[0].ID, sink.events[0].ID)
}

func TestEmitStoreFailureSkipsSink(t *testing.T) {
	store := &recordingStore{fail: true}
	sink := &recordingSink{}
	p := NewPublisher(store, WithSink(sink))

	err := p.Emit(context.Background(), Event{Actor: "u", Action: ActionTrustAssessed})
	assert.Error(t, err)
	assert.Empty(t, sink.events)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategoryOperations, CategoryFor(ActionTrustAssessed))
	assert.Equal(t, CategorySecurity, CategoryFor(ActionTrustAdjusted))
	assert.Equal(t, CategorySecurity, CategoryFor(ActionPermissionDenied))
	assert.Equal(t, CategoryCompliance, CategoryFor(ActionAccessGranted))
	assert.Equal(t, CategoryCompliance, CategoryFor(ActionAccessRevoked))
	assert.Equal(t, CategoryCompliance, CategoryFor(ActionPolicyCreated))
	assert.Equal(t, CategoryOperations, CategoryFor(Action("unknown")))
}

func TestListRecentDelegatesToStore(t *testing.T) {
	store := &recordingStore{}
	p := NewPublisher(store)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Emit(context.Background(), Event{Actor: "u", Action: ActionTrustAssessed}))
	}

	events, err := p.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
