package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_MeSignsAndCaches(t *testing.T) {
	fc := newFakeClient()
	fc.Profiles["U0"] = models.RawRecord{
		"NAME":   "Priya",
		"IMAGES": []any{"https://bucket.s3.amazonaws.com/p.jpg"},
	}
	sess := loggedIn(t, "U0")
	sess.SetEmail(context.Background(), "priya@example.com")

	svc := NewProfileService(fc, sess, fakePresigner{}, logging.Discard())
	me, err := svc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "U0", me.UID)
	assert.Equal(t, "priya@example.com", me.Email)
	assert.Equal(t, []string{"https://signed.example/p.jpg?sig=1"}, me.Images)

	cached, ok := sess.Profile()
	require.True(t, ok)
	assert.Equal(t, me, cached)
}

func TestProfile_MeOffline(t *testing.T) {
	fc := newFakeClient()
	fc.ProfileErr["U0"] = client.ErrUnavailable
	sess := loggedIn(t, "U0")

	svc := NewProfileService(fc, sess, nil, logging.Discard())
	_, err := svc.Me(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)

	sess.SetProfile(context.Background(), models.NormalizedUser{UID: "U0", Name: "Cached"})
	me, err := svc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cached", me.Name)
}

func TestProfile_AddPhotos(t *testing.T) {
	fc := newFakeClient()
	sess := loggedIn(t, "U0")
	sess.SetProfile(context.Background(), models.NormalizedUser{UID: "U0", Images: []string{"https://x/1.jpg"}})

	svc := NewProfileService(fc, sess, nil, logging.Discard())
	me, err := svc.AddPhotos(context.Background(), [][]byte{[]byte("jpeg-1"), []byte("jpeg-2")})
	require.NoError(t, err)

	want := []string{
		base64.StdEncoding.EncodeToString([]byte("jpeg-1")),
		base64.StdEncoding.EncodeToString([]byte("jpeg-2")),
	}
	assert.Equal(t, "U0", fc.LastUpdateUID)
	assert.Equal(t, want, fc.LastUpdateImages)
	require.Len(t, me.Images, 3)
	assert.Equal(t, "data:image/jpeg;base64,"+want[0], me.Images[1])

	cached, _ := sess.Profile()
	assert.Len(t, cached.Images, 3)
}

func TestProfile_AddPhotosLimit(t *testing.T) {
	fc := newFakeClient()
	sess := loggedIn(t, "U0")
	sess.SetProfile(context.Background(), models.NormalizedUser{UID: "U0", Images: []string{"a", "b", "c", "d"}})

	svc := NewProfileService(fc, sess, nil, logging.Discard())
	_, err := svc.AddPhotos(context.Background(), [][]byte{{1}, {2}})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, fc.LastUpdateUID)

	_, err = svc.AddPhotos(context.Background(), nil)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddPhotos(context.Background(), [][]byte{{1}})
	require.NoError(t, err)
}

func TestProfile_AddPhotosUploadFailureKeepsProfile(t *testing.T) {
	fc := newFakeClient()
	fc.UpdateErr = client.ErrUnavailable
	sess := loggedIn(t, "U0")
	sess.SetProfile(context.Background(), models.NormalizedUser{UID: "U0", Images: []string{}})

	svc := NewProfileService(fc, sess, nil, logging.Discard())
	_, err := svc.AddPhotos(context.Background(), [][]byte{{1}})
	require.ErrorIs(t, err, client.ErrUnavailable)

	cached, _ := sess.Profile()
	assert.Empty(t, cached.Images)
}
