package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aligned-app/aligned/internal/client/client"
	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/client/services"
	"github.com/aligned-app/aligned/internal/filex"
	"github.com/aligned-app/aligned/internal/shared"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// ask reads one answer per prompt into the matching destination.
func (a *App) ask(prompts []string, dst []*string) error {
	for i, p := range prompts {
		v, err := getSimpleText(a.reader, p, a.out)
		if err != nil {
			return err
		}
		*dst[i] = v
	}
	return nil
}

// Register prompts for the account form and creates the account.
//
// The form is validated before anything is sent. Passwords are wiped before
// returning.
func (a *App) Register(ctx context.Context) error {
	var (
		reg             models.Registration
		hobbies, photos string
	)
	err := a.ask([]string{
		"Full name", "Email", "Phone", "City", "Country", "Profession",
		"Birth city", "Birth country", "Date of birth (YYYY-MM-DD)", "Time of birth (HH:MM, optional)",
		"Gender", "Hobbies (comma separated)", "Photo files (space separated, optional)",
	}, []*string{
		&reg.Name, &reg.Email, &reg.Phone, &reg.City, &reg.Country, &reg.Profession,
		&reg.BirthCity, &reg.BirthCountry, &reg.DOB, &reg.TOB,
		&reg.Gender, &hobbies, &photos,
	})
	if err != nil {
		return err
	}
	reg.Hobbies = splitList(hobbies)

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)
	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(confirm)
	reg.Password, reg.ConfirmPassword = string(password), string(confirm)

	images, err := filex.ReadFiles(strings.Fields(photos)...)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	if err := a.authService.Register(ctx, reg, images); err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			fmt.Fprintln(a.out, "That email is already registered. Please use a different email.")
		default:
			fmt.Fprintln(a.out, "Registration failed:", err)
		}
		return err
	}

	fmt.Fprintln(a.out, "Account created. You can now login.")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// The auth service falls back to the offline cache when the backend is
// unreachable. On success the mode becomes online or offline and the
// background refresh starts; when neither login works the mode is disabled.
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	mode, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case mode == services.ModeOffline:
			fmt.Fprintln(a.out, "Server unavailable and offline login unsuccessful:", err)
			a.setMode(ModeDisabled)
		case errors.Is(err, client.ErrUnauthorized):
			fmt.Fprintln(a.out, "Invalid email or password")
		default:
			fmt.Fprintln(a.out, "Login unsuccessful:", err)
		}
		return err
	}

	a.destinyService.Reset()
	if mode == services.ModeOffline {
		a.setMode(ModeOffline)
	} else {
		a.setMode(ModeOnline)
	}
	a.printSummary(a.out)
	a.startBackground(ctx)
	return nil
}

func (a *App) printSummary(w io.Writer) {
	s := a.state.Snapshot()
	fmt.Fprintf(w, "Logged in. %d recommendations, %d matches, %d awaiting, %d notifications.\n",
		len(s.Recommendations), len(s.Matches), len(s.Awaiting), s.NotificationCount())
}

// Logout stops background work and forgets the session and cached queues.
func (a *App) Logout(ctx context.Context) error {
	a.stopBackground()
	if err := a.authService.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Logout failed:", err)
		return err
	}
	a.destinyService.Reset()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
