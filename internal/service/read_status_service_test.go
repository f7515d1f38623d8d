package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/induction-api/internal/models"
	"github.com/noah-isme/induction-api/internal/repository"
)

func newTestReadStatusService(t *testing.T) (ReadStatusService, models.User) {
	t.Helper()
	db := setupServiceDB(t)
	user := seedUser(t, db, "Reader", "reader@example.com", models.RoleEmployee)
	svc := NewReadStatusService(repository.NewReadStatusRepository(db), repository.NewUserRepository(db), testLogger())
	return svc, user
}

func TestReadStatusRoundTrip(t *testing.T) {
	svc, user := newTestReadStatusService(t)
	ctx := context.Background()

	empty, err := svc.GetReadStatus(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	first := map[string]bool{"a.pdf": true, "b.pdf": false, "c.pdf": true}
	require.NoError(t, svc.SetReadStatus(ctx, user.ID, first))
	got, err := svc.GetReadStatus(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)

	second := map[string]bool{"b.pdf": true, "d.pdf": false}
	require.NoError(t, svc.SetReadStatus(ctx, user.ID, second))
	got, err = svc.GetReadStatus(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestReadStatusRejectsPaddedOrBlankNames(t *testing.T) {
	svc, user := newTestReadStatusService(t)
	ctx := context.Background()

	stored := map[string]bool{"a.pdf": true}
	require.NoError(t, svc.SetReadStatus(ctx, user.ID, stored))

	for _, statuses := range []map[string]bool{
		{" a.pdf": true},
		{"a.pdf": true, "a.pdf ": false},
		{"": true},
		{"   ": false},
		{strings.Repeat("x", 256): true},
	} {
		err := svc.SetReadStatus(ctx, user.ID, statuses)
		require.ErrorIs(t, err, ErrInvalidDocumentName)
	}

	got, err := svc.GetReadStatus(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, stored, got)
}

func TestReadStatusKeepsNamesVerbatim(t *testing.T) {
	svc, user := newTestReadStatusService(t)
	ctx := context.Background()

	statuses := map[string]bool{"Fire Safety.pdf": true, "fire safety.pdf": false}
	require.NoError(t, svc.SetReadStatus(ctx, user.ID, statuses))
	got, err := svc.GetReadStatus(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, statuses, got)
}

func TestReadStatusUnknownUser(t *testing.T) {
	svc, user := newTestReadStatusService(t)
	err := svc.SetReadStatus(context.Background(), user.ID+99, map[string]bool{"a.pdf": true})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestReadStatusConcurrentSavesKeepOneWholeSet(t *testing.T) {
	svc, user := newTestReadStatusService(t)
	ctx := context.Background()

	sets := make([]map[string]bool, 4)
	for i := range sets {
		sets[i] = map[string]bool{
			fmt.Sprintf("doc-%d-a.pdf", i): true,
			fmt.Sprintf("doc-%d-b.pdf", i): false,
		}
	}

	var wg sync.WaitGroup
	for _, set := range sets {
		wg.Add(1)
		go func(statuses map[string]bool) {
			defer wg.Done()
			require.NoError(t, svc.SetReadStatus(ctx, user.ID, statuses))
		}(set)
	}
	wg.Wait()

	got, err := svc.GetReadStatus(ctx, user.ID)
	require.NoError(t, err)
	require.Contains(t, sets, got)
}

func TestUserLocksReleaseEntries(t *testing.T) {
	locks := newUserLocks()
	unlock := locks.lock(7)
	require.Len(t, locks.locks, 1)
	unlock()
	require.Empty(t, locks.locks)
}
