package devserver

import (
	"testing"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, s *Store, name, email string) string {
	t.Helper()
	id, err := s.CreateAccount(models.Registration{Name: name, Email: email, Password: "secret1"}, nil)
	require.NoError(t, err)
	return id
}

func tags(cards []map[string]any) map[string]string {
	out := make(map[string]string, len(cards))
	for _, c := range cards {
		out[c["recommendation_uid"].(string)] = c["queue"].(string)
	}
	return out
}

func TestStore_CreateAndAuthenticate(t *testing.T) {
	s := NewStore()
	id, err := s.CreateAccount(models.Registration{
		Name: "Asha", Email: "Asha@Example.com", Password: "secret1", ConfirmPassword: "secret1",
	}, [][]byte{[]byte("img")})
	require.NoError(t, err)

	assert.False(t, s.EmailAvailable("asha@example.com"))
	_, err = s.CreateAccount(models.Registration{Name: "X", Email: "asha@example.com", Password: "p"}, nil)
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := s.Authenticate(" asha@example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = s.Authenticate("asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = s.Authenticate("nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	p, err := s.Profile(id)
	require.NoError(t, err)
	assert.Equal(t, "Asha", p["NAME"])
	assert.Equal(t, []string{"data:image/jpeg;base64,aW1n"}, p["IMAGES"])
	assert.NotContains(t, p, "PASSWORD")
}

func TestStore_CreateAccountValidation(t *testing.T) {
	s := NewStore()
	_, err := s.CreateAccount(models.Registration{Email: "a@b.c", Password: "p"}, nil)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.CreateAccount(models.Registration{Name: "A", Email: "a@b.c", Password: "p"}, make([][]byte, MaxImages+1))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStore_QueueTransitions(t *testing.T) {
	s := NewStore()
	me := newAccount(t, s, "Me", "me@example.com")
	asha := newAccount(t, s, "Asha", "asha@example.com")
	ravi := newAccount(t, s, "Ravi", "ravi@example.com")

	cards, err := s.Cards(me, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{asha: models.TagRecommendations, ravi: models.TagRecommendations}, tags(cards))

	// Aligning first leaves the subject awaiting.
	out, err := s.Act(me, models.ActionAlign, ravi)
	require.NoError(t, err)
	assert.Equal(t, ActionOutcome{Queue: models.TagAwaiting, Message: models.TagNone}, out)

	// Ravi sees me as a recommendation that aligned with him.
	cards, err = s.Cards(ravi, models.TagRecommendations)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, me, cards[0]["recommendation_uid"])
	assert.Equal(t, true, cards[0]["user_align"])
	require.Len(t, s.Notifications(ravi), 1)

	// Aligning back makes a match on both sides.
	out, err = s.Act(ravi, models.ActionAlign, me)
	require.NoError(t, err)
	assert.Equal(t, models.TagMatched, out.Queue)
	assert.True(t, out.UserAlign)
	assert.Contains(t, out.Message, "Me")

	cards, err = s.Cards(me, models.TagMatched)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ravi: models.TagMatched}, tags(cards))
	assert.Equal(t, "It's a match! You and Ravi aligned.", s.Notifications(me)[0].Message)

	// Skipping removes the subject everywhere.
	out, err = s.Act(me, models.ActionSkip, asha)
	require.NoError(t, err)
	assert.Equal(t, models.TagNone, out.Queue)
	cards, err = s.Cards(me, "")
	require.NoError(t, err)
	assert.NotContains(t, tags(cards), asha)
}

func TestStore_ActErrors(t *testing.T) {
	s := NewStore()
	me := newAccount(t, s, "Me", "me@example.com")
	other := newAccount(t, s, "O", "o@example.com")

	_, err := s.Act(me, models.ActionAlign, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Act(me, models.ActionAlign, me)
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.Act(me, "wink", other)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStore_Preference(t *testing.T) {
	s := NewStore()
	me := newAccount(t, s, "Me", "me@example.com")

	msg, done, err := s.Preference(me, "hi")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, destinyQuestions[0], msg)

	for i, answer := range []string{"kindness", "very", "anywhere"} {
		msg, done, err = s.Preference(me, answer)
		require.NoError(t, err)
		if i < len(destinyQuestions)-1 {
			assert.False(t, done)
			assert.Equal(t, destinyQuestions[i+1], msg)
		}
	}
	assert.True(t, done)
	assert.Equal(t, destinyDone, msg)
	assert.Equal(t, []string{"kindness", "very", "anywhere"}, s.Preferences(me))

	_, _, err = s.Preference(me, "  ")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestStore_ConversationRequiresMatch(t *testing.T) {
	s := NewStore()
	a := newAccount(t, s, "A", "a@example.com")
	b := newAccount(t, s, "B", "b@example.com")
	c := newAccount(t, s, "C", "c@example.com")

	_, err := s.Conversation(a, b)
	assert.ErrorIs(t, err, ErrNotMatched)

	_, err = s.Act(a, models.ActionAlign, b)
	require.NoError(t, err)
	_, err = s.Act(b, models.ActionAlign, a)
	require.NoError(t, err)

	id, err := s.Conversation(a, b)
	require.NoError(t, err)
	again, err := s.Conversation(b, a)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	line, err := s.Post(id, a, "hello", "")
	require.NoError(t, err)
	assert.Equal(t, a, line.Author)

	_, err = s.Post(id, c, "intruder", "")
	assert.ErrorIs(t, err, ErrNotMatched)
	_, err = s.Post(id, a, " ", "")
	assert.ErrorIs(t, err, ErrInvalid)

	lines, err := s.History(id, b)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0].Body)

	_, err = s.History("CHnope", a)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddImages(t *testing.T) {
	s := NewStore()
	me := newAccount(t, s, "Me", "me@example.com")

	p, err := s.AddImages(me, []string{"QUJD", "data:image/png;base64,RA=="})
	require.NoError(t, err)
	assert.Equal(t, []string{"data:image/jpeg;base64,QUJD", "data:image/png;base64,RA=="}, p["IMAGES"])

	_, err = s.AddImages(me, make([]string, MaxImages-1))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestScore(t *testing.T) {
	assert.Equal(t, Score("a", "b"), Score("b", "a"))
	for _, pair := range [][2]string{{"a", "b"}, {"u1", "u2"}, {"x", "yz"}} {
		sc := Score(pair[0], pair[1])
		assert.GreaterOrEqual(t, sc, 0.0)
		assert.LessOrEqual(t, sc, 36.0)
	}
}

func TestSeed(t *testing.T) {
	s := NewStore()
	demo, err := Seed(s)
	require.NoError(t, err)

	uid, err := s.Authenticate(DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, demo, uid)

	cards, err := s.Cards(demo, models.TagRecommendations)
	require.NoError(t, err)
	assert.Len(t, cards, len(demoPeople))

	aligned := 0
	for _, c := range cards {
		if c["user_align"] == true {
			aligned++
		}
	}
	assert.Equal(t, 2, aligned)
}
