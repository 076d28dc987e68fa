package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/charmbracelet/lipgloss"
)

// maxScore is the top of the compatibility scale.
const maxScore = 36

var (
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// Age returns the age in whole years on now of someone born on dob
// (YYYY-MM-DD).
func Age(dob string, now time.Time) (int, bool) {
	born, err := time.Parse(time.DateOnly, strings.TrimSpace(dob))
	if err != nil || born.After(now) {
		return 0, false
	}
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return years, true
}

func formatScore(s *float64) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s/%d", strconv.FormatFloat(*s, 'f', -1, 64), maxScore)
}

func location(u models.NormalizedUser) string {
	var parts []string
	for _, p := range []string{u.City, u.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func title(u models.NormalizedUser, now time.Time) string {
	if age, ok := Age(u.DOB, now); ok {
		return fmt.Sprintf("%s, %d", u.Name, age)
	}
	return u.Name
}

// renderCard renders the full profile card of u.
func renderCard(u models.NormalizedUser, now time.Time) string {
	lines := []string{titleStyle.Render(title(u, now))}
	if loc := location(u); loc != "" {
		lines = append(lines, loc)
	}
	if u.Profession != "" {
		lines = append(lines, u.Profession)
	}
	if s := formatScore(u.CompatibilityScore); s != "" {
		lines = append(lines, "Compatibility: "+s)
	}
	if len(u.Hobbies) > 0 {
		lines = append(lines, "Hobbies: "+strings.Join(u.Hobbies, ", "))
	}
	lines = append(lines, fmt.Sprintf("Photos: %d", len(u.Images)))
	for _, img := range u.Images {
		if strings.HasPrefix(img, "http") {
			lines = append(lines, faintStyle.Render("  "+img))
		}
	}
	if u.HasExpressedInterest {
		lines = append(lines, "Has aligned with you")
	}
	lines = append(lines, faintStyle.Render("id: "+u.UID))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// renderRow is the one-line form used by list.
func renderRow(u models.NormalizedUser, now time.Time) string {
	cols := []string{u.UID, title(u, now)}
	if loc := location(u); loc != "" {
		cols = append(cols, loc)
	}
	if s := formatScore(u.CompatibilityScore); s != "" {
		cols = append(cols, s)
	}
	if u.HasExpressedInterest {
		cols = append(cols, "*")
	}
	return "  " + strings.Join(cols, "  ")
}

func renderQueue(q models.Queue, users []models.NormalizedUser, now time.Time) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", queueTitle(q), len(users))))
	b.WriteByte('\n')
	if len(users) == 0 {
		b.WriteString(faintStyle.Render("  nobody here yet"))
		b.WriteByte('\n')
	}
	for _, u := range users {
		b.WriteString(renderRow(u, now))
		b.WriteByte('\n')
	}
	return b.String()
}

func queueTitle(q models.Queue) string {
	switch q {
	case models.QueueMatches:
		return "Matches"
	case models.QueueAwaiting:
		return "Awaiting"
	}
	return "Recommendations"
}
