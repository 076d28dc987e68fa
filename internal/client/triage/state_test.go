package triage

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(uid, name string) models.NormalizedUser {
	return models.NormalizedUser{UID: uid, Name: name, Hobbies: []string{}, Images: []string{}}
}

func countOccurrences(s Snapshot, uid string) int {
	n := 0
	for _, q := range models.Queues {
		for _, u := range s.Queue(q) {
			if u.UID == uid {
				n++
			}
		}
	}
	return n
}

func TestRouteFor(t *testing.T) {
	tests := []struct {
		tag   string
		want  models.Queue
		known bool
	}{
		{"MATCHED", models.QueueMatches, true},
		{"Matched", models.QueueMatches, true},
		{"awaiting", models.QueueAwaiting, true},
		{"RECOMMENDATIONS", models.QueueRecommendations, true},
		{"None", models.QueueRecommendations, false},
		{"", models.QueueRecommendations, false},
		{"Something_Unexpected", models.QueueRecommendations, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			q, known := RouteFor(tt.tag)
			assert.Equal(t, tt.want, q)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestRoute_UnknownTagFallsBackToRecommendations(t *testing.T) {
	s := NewState()
	q, known := s.Route(user("U7", "Mira"), "Something_Unexpected")

	assert.Equal(t, models.QueueRecommendations, q)
	assert.False(t, known)

	snap := s.Snapshot()
	require.Len(t, snap.Recommendations, 1)
	assert.Empty(t, snap.Matches)
	assert.Empty(t, snap.Awaiting)
}

func TestRoute_MovesBetweenQueues(t *testing.T) {
	s := NewState()
	s.Route(user("U1", "A"), "RECOMMENDATIONS")
	s.Route(user("U1", "A"), "MATCHED")

	q, ok := s.Locate("U1")
	require.True(t, ok)
	assert.Equal(t, models.QueueMatches, q)
	assert.Empty(t, s.List(models.QueueRecommendations))
}

func TestRoute_QueueExclusivityUnderRandomSequences(t *testing.T) {
	tags := []string{"MATCHED", "AWAITING", "RECOMMENDATIONS", "None", "", "weird", "matched"}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		s := NewState()
		for i := 0; i < 30; i++ {
			switch rng.Intn(3) {
			case 0:
				s.Remove("U1")
			default:
				s.Route(user("U1", "A"), tags[rng.Intn(len(tags))])
			}
			require.LessOrEqual(t, countOccurrences(s.Snapshot(), "U1"), 1)
		}
	}
}

func TestRoute_ConcurrentRoutesKeepExclusivity(t *testing.T) {
	s := NewState()
	tags := []string{"MATCHED", "AWAITING", "RECOMMENDATIONS"}

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Route(user("U1", "A"), tags[i%len(tags)])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, countOccurrences(s.Snapshot(), "U1"))
}

func TestList_PreservesInsertionOrder(t *testing.T) {
	s := NewState()
	s.Route(user("U1", "A"), "")
	s.Route(user("U2", "B"), "")
	s.Route(user("U3", "C"), "")
	s.Route(user("U2", "B2"), "")

	got := s.List(models.QueueRecommendations)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"U1", "U3", "U2"}, []string{got[0].UID, got[1].UID, got[2].UID})
	assert.Equal(t, "B2", got[2].Name)
}

func TestApplyActionResult_AlignIntoMatch(t *testing.T) {
	s := NewState()
	s.Route(user("U1", "Asha"), "RECOMMENDATIONS")

	q, placed := s.ApplyActionResult("U1", models.ActionResult{Status: "OK", Queue: "MATCHED", Message: "You matched!"}, models.NormalizedUser{})

	assert.True(t, placed)
	assert.Equal(t, models.QueueMatches, q)
	snap := s.Snapshot()
	assert.Empty(t, snap.Recommendations)
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, "U1", snap.Matches[0].UID)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "You matched!", snap.Messages[0].Text)
	assert.Equal(t, "Asha", snap.Messages[0].UserName)
	assert.True(t, snap.Unread)
}

func TestApplyActionResult_SkipWithNoQueue(t *testing.T) {
	s := NewState()
	s.Route(user("U2", "Ravi"), "AWAITING")

	_, placed := s.ApplyActionResult("U2", models.ActionResult{Status: "OK", Queue: "None", Message: "None"}, models.NormalizedUser{})

	assert.False(t, placed)
	_, found := s.Locate("U2")
	assert.False(t, found)
	assert.Empty(t, s.Messages())
}

func TestApplyActionResult_UsesFallbackProfile(t *testing.T) {
	s := NewState()
	interested := true
	q, placed := s.ApplyActionResult("U5", models.ActionResult{Status: "OK", Queue: "AWAITING", HasExpressedInterest: &interested}, user("", "Kai"))

	require.True(t, placed)
	assert.Equal(t, models.QueueAwaiting, q)
	u, ok := s.Get("U5")
	require.True(t, ok)
	assert.Equal(t, "Kai", u.Name)
	assert.True(t, u.HasExpressedInterest)
}

func TestNotifications_DedupeAndCount(t *testing.T) {
	s := NewState()
	s.SetNotifications([]models.Notification{
		{Message: "hello", Updated: "t1"},
		{Message: "hello", Updated: "t1"},
		{Message: "bye", Updated: "t2"},
	})
	s.AddMessage("You matched!", "Asha")

	snap := s.Snapshot()
	assert.Len(t, snap.Notifications, 2)
	assert.Equal(t, 3, snap.NotificationCount())
	assert.True(t, snap.Unread)

	s.MarkRead()
	assert.False(t, s.Snapshot().Unread)
}

func TestMessages_NewestFirst(t *testing.T) {
	s := NewState()
	s.AddMessage("first", "")
	s.AddMessage("second", "")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "second", msgs[0].Text)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	s := NewState()
	var got []Snapshot
	s.OnChange(func(snap Snapshot) { got = append(got, snap) })

	s.Route(user("U1", "A"), "MATCHED")
	s.Remove("missing")
	s.Remove("U1")

	require.Len(t, got, 2)
	assert.Len(t, got[0].Matches, 1)
	assert.Empty(t, got[1].Matches)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := NewState()
	u := user("U1", "A")
	u.Hobbies = []string{"x"}
	s.Route(u, "")

	snap := s.Snapshot()
	snap.Recommendations[0].Hobbies[0] = "changed"

	again := s.Snapshot()
	assert.Equal(t, "x", again.Recommendations[0].Hobbies[0])
}

func TestReset(t *testing.T) {
	s := NewState()
	s.Route(user("U1", "A"), "MATCHED")
	s.AddMessage("m", "")
	s.SetNotifications([]models.Notification{{Message: "n"}})

	s.Reset()

	snap := s.Snapshot()
	assert.Empty(t, snap.Matches)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Notifications)
}

func TestPrune_DropsUnlistedUsersOfOneQueue(t *testing.T) {
	s := NewState()
	s.Route(user("U1", "A"), "RECOMMENDATIONS")
	s.Route(user("U2", "B"), "RECOMMENDATIONS")
	s.Route(user("U3", "C"), "RECOMMENDATIONS")
	s.Route(user("U4", "D"), "MATCHED")

	dropped := s.Prune(models.QueueRecommendations, []string{"U2", "U4"})

	assert.Equal(t, []string{"U1", "U3"}, dropped)
	snap := s.Snapshot()
	require.Len(t, snap.Recommendations, 1)
	assert.Equal(t, "U2", snap.Recommendations[0].UID)
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, "U4", snap.Matches[0].UID)

	assert.Empty(t, s.Prune(models.QueueRecommendations, []string{"U2"}))
}
