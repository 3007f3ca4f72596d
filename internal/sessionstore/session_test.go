package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStoreSaveGetList(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	id := uuid.New()
	rec := &SessionRecord{
		ID:        id,
		Kind:      "yandex/rotate",
		Objective: "rotate the image until upright",
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rec.Objective, got.Objective)
	assert.Equal(t, StatusRunning, got.Status)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemorySessionStoreGetMissing(t *testing.T) {
	store := NewMemorySessionStore()
	_, err := store.Get(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestSessionRecordDurationUsesFinishedAt(t *testing.T) {
	start := time.Now().Add(-5 * time.Second)
	finish := start.Add(2 * time.Second)
	rec := &SessionRecord{StartedAt: start, FinishedAt: &finish}
	assert.Equal(t, 2*time.Second, rec.Duration())
}
