// Package models defines the canonical client-side types: normalized users,
// recommendation cards, triage queues, notifications and chat messages.
package models

// RawRecord is an untyped record as decoded from a backend JSON payload.
// Keys may be upper- or lower-case depending on the endpoint.
type RawRecord = map[string]any

// NormalizedUser is the canonical shape of a person used everywhere past the
// decoding boundary.
//
// Invariants:
//   - Hobbies is never nil and never holds a raw CSV string.
//   - Every Images entry is directly renderable (data URL or http(s) URL).
type NormalizedUser struct {
	UID                  string   `json:"uid"`
	Name                 string   `json:"name"`
	Email                string   `json:"email,omitempty"`
	Phone                string   `json:"phone,omitempty"`
	City                 string   `json:"city,omitempty"`
	Country              string   `json:"country,omitempty"`
	BirthCity            string   `json:"birth_city,omitempty"`
	BirthCountry         string   `json:"birth_country,omitempty"`
	Profession           string   `json:"profession,omitempty"`
	DOB                  string   `json:"dob"`
	TOB                  string   `json:"tob,omitempty"`
	Gender               string   `json:"gender,omitempty"`
	Hobbies              []string `json:"hobbies"`
	Images               []string `json:"images"`
	CompatibilityScore   *float64 `json:"compatibility_score,omitempty"`
	HasExpressedInterest bool     `json:"has_expressed_interest"`
}

// Clone returns a deep copy of u.
func (u NormalizedUser) Clone() NormalizedUser {
	c := u
	c.Hobbies = append([]string{}, u.Hobbies...)
	c.Images = append([]string{}, u.Images...)
	if u.CompatibilityScore != nil {
		s := *u.CompatibilityScore
		c.CompatibilityScore = &s
	}
	return c
}

// WithCard annotates u with the score and interest flag carried by a card.
func (u NormalizedUser) WithCard(card RecommendationCard) NormalizedUser {
	c := u.Clone()
	if card.Score != nil {
		s := *card.Score
		c.CompatibilityScore = &s
	}
	c.HasExpressedInterest = card.HasExpressedInterest
	return c
}

// Registration is the account-creation form.
type Registration struct {
	Name            string   `json:"name" validate:"required"`
	Phone           string   `json:"phone" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=6"`
	ConfirmPassword string   `json:"-" validate:"required,eqfield=Password"`
	City            string   `json:"city" validate:"required"`
	Country         string   `json:"country" validate:"required"`
	Profession      string   `json:"profession"`
	BirthCity       string   `json:"birth_city" validate:"required"`
	BirthCountry    string   `json:"birth_country" validate:"required"`
	DOB             string   `json:"dob" validate:"required,datetime=2006-01-02"`
	TOB             string   `json:"tob" validate:"omitempty,datetime=15:04"`
	Gender          string   `json:"gender" validate:"required"`
	Hobbies         []string `json:"hobbies"`
}
