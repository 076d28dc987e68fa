package cli

import (
	"testing"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestAge(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		dob  string
		want int
		ok   bool
	}{
		{"1990-06-15", 35, true},
		{"1990-06-16", 34, true},
		{"1990-07-01", 34, true},
		{" 2000-01-01 ", 25, true},
		{"2030-01-01", 0, false},
		{"15/06/1990", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			got, ok := Age(tt.dob, now)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatScore(t *testing.T) {
	s, f := 27.0, 18.5
	assert.Equal(t, "27/36", formatScore(&s))
	assert.Equal(t, "18.5/36", formatScore(&f))
	assert.Equal(t, "", formatScore(nil))
}

func TestRenderCard(t *testing.T) {
	score := 30.0
	u := models.NormalizedUser{
		UID:                  "u1",
		Name:                 "Asha",
		City:                 "Austin",
		Country:              "USA",
		Profession:           "Engineer",
		DOB:                  "1991-01-02",
		Hobbies:              []string{"chess", "rock climbing"},
		Images:               []string{"https://signed.example/a.jpg", "data:image/jpeg;base64,AAAA"},
		CompatibilityScore:   &score,
		HasExpressedInterest: true,
	}
	out := renderCard(u, fixedNow)
	for _, want := range []string{
		"Asha, 34", "Austin, USA", "Engineer", "Compatibility: 30/36",
		"Hobbies: chess, rock climbing", "Photos: 2", "https://signed.example/a.jpg",
		"Has aligned with you", "id: u1",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "base64")
}

func TestRenderRow(t *testing.T) {
	u := models.NormalizedUser{UID: "u1", Name: "Asha", DOB: "not a date", Country: "India"}
	assert.Equal(t, "  u1  Asha  India", renderRow(u, fixedNow))
}
