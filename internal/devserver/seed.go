package devserver

import (
	"fmt"

	"github.com/aligned-app/aligned/internal/client/models"
)

// Demo credentials created by Seed.
const (
	DemoEmail    = "demo@aligned.app"
	DemoPassword = "password1"
)

var demoPeople = []models.Registration{
	{Name: "Asha Rao", Email: "asha@aligned.app", Phone: "+15550101", City: "Austin", Country: "USA",
		Profession: "Architect", BirthCity: "Pune", BirthCountry: "India", DOB: "1993-04-11", TOB: "06:30",
		Gender: "female", Hobbies: []string{"rock climbing", "chess"}},
	{Name: "Meera Iyer", Email: "meera@aligned.app", Phone: "+15550102", City: "Chennai", Country: "India",
		Profession: "Doctor", BirthCity: "Madurai", BirthCountry: "India", DOB: "1995-09-02",
		Gender: "female", Hobbies: []string{"veena", "hiking"}},
	{Name: "Ravi Menon", Email: "ravi@aligned.app", Phone: "+15550103", City: "London", Country: "UK",
		Profession: "Chef", BirthCity: "Kochi", BirthCountry: "India", DOB: "1990-12-24",
		Gender: "male", Hobbies: []string{"cooking", "cricket"}},
	{Name: "Priya Shah", Email: "priya@aligned.app", Phone: "+15550104", City: "Toronto", Country: "Canada",
		Profession: "Data scientist", BirthCity: "Surat", BirthCountry: "India", DOB: "1994-02-17",
		Gender: "female", Hobbies: []string{"running", "painting", "travel"}},
}

// Seed registers the demo account and a few people. Asha and Priya have
// already aligned with the demo account, so aligning back makes a match.
func Seed(s *Store) (string, error) {
	demo, err := s.CreateAccount(models.Registration{
		Name: "Demo User", Email: DemoEmail, Password: DemoPassword, Phone: "+15550100",
		City: "Austin", Country: "USA", Profession: "Engineer", BirthCity: "Mumbai",
		BirthCountry: "India", DOB: "1992-07-08", Gender: "male", Hobbies: []string{"music", "yoga"},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("seed demo account: %w", err)
	}

	for i, p := range demoPeople {
		p.Password = DemoPassword
		id, err := s.CreateAccount(p, nil)
		if err != nil {
			return "", fmt.Errorf("seed %s: %w", p.Email, err)
		}
		if i%3 == 0 {
			if _, err := s.Act(id, models.ActionAlign, demo); err != nil {
				return "", fmt.Errorf("seed align %s: %w", p.Email, err)
			}
		}
	}
	return demo, nil
}
