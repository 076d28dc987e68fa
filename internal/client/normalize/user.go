package normalize

import "github.com/aligned-app/aligned/internal/client/models"

// UnknownName is used when a record carries no display name.
const UnknownName = "Unknown User"

// User converts a raw profile record into a NormalizedUser. It never fails.
func User(raw models.RawRecord) models.NormalizedUser {
	u := models.NormalizedUser{
		UID:                  text(raw, "UID", "uid"),
		Name:                 text(raw, "NAME", "name"),
		Email:                text(raw, "EMAIL", "email"),
		Phone:                text(raw, "PHONE", "phone"),
		City:                 text(raw, "CITY", "city"),
		Country:              text(raw, "COUNTRY", "country"),
		BirthCity:            text(raw, "BIRTH_CITY", "birth_city"),
		BirthCountry:         text(raw, "BIRTH_COUNTRY", "birth_country"),
		Profession:           text(raw, "PROFESSION", "profession"),
		TOB:                  text(raw, "TOB", "tob"),
		Gender:               text(raw, "GENDER", "gender"),
		HasExpressedInterest: flag(raw, "USER_ALIGN", "user_align"),
		Images:               Images(raw),
	}
	if u.Name == "" {
		u.Name = UnknownName
	}

	u.Hobbies = []string{}
	if v, ok := lookup(raw, "HOBBIES", "hobbies"); ok {
		u.Hobbies = Hobbies(v)
	}
	if v, ok := lookup(raw, "DOB", "dob"); ok {
		u.DOB = DOB(v)
	}
	return u
}
