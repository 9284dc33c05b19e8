package savedanalyses

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tejasvaidya10/laplens/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "laplens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleInput(name string) models.SavedAnalysisCreate {
	lap := 44
	return models.SavedAnalysisCreate{
		Name: name, Season: 2023, Event: "Monza", Session: "R",
		DriverA: "VER", DriverB: "HAM", LapA: &lap,
	}
}

func TestStore_CreateGetList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first, err := s.Create(ctx, "user-1", sampleInput("first"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, base, first.CreatedAt)

	s.now = func() time.Time { return base.Add(time.Hour) }
	second, err := s.Create(ctx, "user-1", sampleInput("second"))
	require.NoError(t, err)
	_, err = s.Create(ctx, "user-2", sampleInput("other"))
	require.NoError(t, err)

	got, err := s.Get(ctx, first.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)
	require.NotNil(t, got.LapA)
	assert.Equal(t, 44, *got.LapA)
	assert.Nil(t, got.LapB)

	list, err := s.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestStore_OwnershipAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, "user-1", sampleInput("mine"))
	require.NoError(t, err)

	_, err = s.Get(ctx, a.ID, "user-2")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, a.ID, "user-2"), ErrNotFound))

	require.NoError(t, s.Delete(ctx, a.ID, "user-1"))
	assert.True(t, errors.Is(s.Delete(ctx, a.ID, "user-1"), ErrNotFound))

	list, err := s.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Validation(t *testing.T) {
	s := openTestStore(t)

	in := sampleInput(" ")
	_, err := s.Create(context.Background(), "user-1", in)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	in = sampleInput("ok")
	in.DriverB = ""
	_, err = s.Create(context.Background(), "user-1", in)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
