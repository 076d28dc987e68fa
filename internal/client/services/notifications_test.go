package services

import (
	"context"
	"testing"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_PollReturnsOnlyUnseen(t *testing.T) {
	ctx := context.Background()
	fc := newFakeClient()
	state := newState()
	svc := NewNotificationService(fc, state, loggedIn(t, "U0"), logging.Discard())

	seeded := svc.Seed(ctx, []models.RawRecord{
		{"MESSAGE": "Welcome", "UPDATED": "t1"},
		{"message": ""},
	})
	require.Len(t, seeded, 1)

	fc.NotificationsRet = []models.RawRecord{
		{"message": "Welcome", "updated": "t1"},
		{"message": "Ravi aligned with you", "updated": "t2"},
		{"message": "Ravi aligned with you", "updated": "t2"},
	}
	fresh, err := svc.Poll(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "Ravi aligned with you", fresh[0].Message)
	assert.Equal(t, "U0", fc.LastNotifications)
	assert.Len(t, state.Notifications(), 2)

	fresh, err = svc.Poll(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestNotifications_CountIncludesLocalMessages(t *testing.T) {
	ctx := context.Background()
	state := newState()
	svc := NewNotificationService(newFakeClient(), state, loggedIn(t, "U0"), logging.Discard())

	svc.Seed(ctx, []models.RawRecord{{"message": "a", "updated": "1"}, {"message": "b", "updated": "2"}})
	state.AddMessage("You matched!", "Asha")

	assert.Equal(t, 3, state.Snapshot().NotificationCount())
}

func TestNotifications_PollErrors(t *testing.T) {
	fc := newFakeClient()
	svc := NewNotificationService(fc, newState(), loggedIn(t, ""), logging.Discard())
	_, err := svc.Poll(context.Background())
	require.ErrorIs(t, err, ErrNotLoggedIn)

	fc.NotificationsErr = client.ErrUnavailable
	log, buf := bufferLogger()
	svc = NewNotificationService(fc, newState(), loggedIn(t, "U0"), log)
	_, err = svc.Poll(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Contains(t, buf.String(), "notification poll failed")
}
