package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fieldir/internal/metadata"
)

func seedStore(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()
	ops := []struct {
		id, fp string
		models []string
	}{
		{"req-1", "fp-a", []string{"Users"}},
		{"req-2", "fp-b", []string{"Posts", "Users"}},
		{"req-3", "fp-a", []string{"Users", "Users"}},
		{"req-4", "fp-c", []string{"Posts"}},
	}
	for _, o := range ops {
		_, err := s.Record(ctx, "admin", createTestOperation(o.id, o.fp, o.models...))
		require.NoError(t, err)
	}
	return s
}

func requestIDs(records []OperationRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RequestID
	}
	return ids
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "missing")
}

func TestList(t *testing.T) {
	s := seedStore(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all in seq order", Filter{}, []string{"req-1", "req-2", "req-3", "req-4"}},
		{"by fingerprint", Filter{Fingerprint: "fp-a"}, []string{"req-1", "req-3"}},
		{"by model", Filter{Model: "Posts"}, []string{"req-2", "req-4"}},
		{"fingerprint and model", Filter{Fingerprint: "fp-b", Model: "Users"}, []string{"req-2"}},
		{"limit keeps newest", Filter{Limit: 2}, []string{"req-3", "req-4"}},
		{"limit with model", Filter{Model: "Users", Limit: 2}, []string{"req-2", "req-3"}},
		{"no match", Filter{Fingerprint: "nope"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := s.List(context.Background(), tt.filter)
			require.NoError(t, err)
			require.NotNil(t, records)
			assert.Equal(t, tt.want, requestIDs(records))
		})
	}
}

func TestList_WithIR(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	without, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, without, 1)
	assert.Nil(t, without[0].IR)

	with, err := s.List(ctx, Filter{Limit: 1, WithIR: true})
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Contains(t, string(with[0].IR), `"request_id":"req-4"`)
}

func TestModelUsage(t *testing.T) {
	s := seedStore(t)

	usage, err := s.ModelUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[metadata.ModelName]int{"Users": 4, "Posts": 2}, usage)
}

func TestModelUsage_Empty(t *testing.T) {
	s := createTestStore(t)

	usage, err := s.ModelUsage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, usage)
}
