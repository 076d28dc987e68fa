package devserver

import (
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/cryptox"
	"github.com/google/uuid"
)

// MaxImages is the number of photos a profile may hold.
const MaxImages = 5

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already exists")
	ErrUnauthorized = errors.New("invalid email or password")
	ErrNotMatched   = errors.New("users are not matched")
	ErrInvalid      = errors.New("invalid request")
)

// account is one registered user. Passwords are kept as a salt and an
// argon2id verifier.
type account struct {
	ID        string
	Profile   models.Registration
	Images    []string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}

type conversation struct {
	ID      string
	Members [2]string
	Lines   []models.ChatLine
}

func (c *conversation) member(uid string) bool {
	return c.Members[0] == uid || c.Members[1] == uid
}

// ActionOutcome is the answer to an align or skip.
type ActionOutcome struct {
	Queue     string
	Message   string
	UserAlign bool
}

// Store is the in-memory state of the development backend. It is safe for
// concurrent use.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	accounts map[string]*account
	order    []string
	byEmail  map[string]string

	aligned map[string]map[string]bool
	skipped map[string]map[string]bool

	notifications map[string][]models.Notification
	conversations map[string]*conversation
	pairs         map[string]string

	destinyStep map[string]int
	preferences map[string][]string
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		accounts:      make(map[string]*account),
		byEmail:       make(map[string]string),
		aligned:       make(map[string]map[string]bool),
		skipped:       make(map[string]map[string]bool),
		notifications: make(map[string][]models.Notification),
		conversations: make(map[string]*conversation),
		pairs:         make(map[string]string),
		destinyStep:   make(map[string]int),
		preferences:   make(map[string][]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailAvailable reports whether no account uses email.
func (s *Store) EmailAvailable(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, taken := s.byEmail[emailKey(email)]
	return !taken
}

// CreateAccount registers reg and returns the new user id. images are stored
// as data URLs.
func (s *Store) CreateAccount(reg models.Registration, images [][]byte) (string, error) {
	if strings.TrimSpace(reg.Name) == "" || emailKey(reg.Email) == "" || reg.Password == "" {
		return "", fmt.Errorf("%w: name, email and password are required", ErrInvalid)
	}
	if len(images) > MaxImages {
		return "", fmt.Errorf("%w: at most %d images", ErrInvalid, MaxImages)
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return "", err
	}
	verifier := cryptox.MakeVerifier(cryptox.DeriveMasterKey([]byte(reg.Password), salt))

	acc := &account{
		ID:        uuid.NewString(),
		Profile:   reg,
		Salt:      salt,
		Verifier:  verifier,
		CreatedAt: s.now(),
	}
	acc.Profile.Password, acc.Profile.ConfirmPassword = "", ""
	for _, img := range images {
		acc.Images = append(acc.Images, dataURL(img))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(reg.Email)
	if _, taken := s.byEmail[key]; taken {
		return "", ErrEmailTaken
	}
	s.accounts[acc.ID] = acc
	s.order = append(s.order, acc.ID)
	s.byEmail[key] = acc.ID
	return acc.ID, nil
}

func dataURL(img []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)
}

// Authenticate returns the id of the account matching email and password.
func (s *Store) Authenticate(email, password string) (string, error) {
	s.mu.Lock()
	id, ok := s.byEmail[emailKey(email)]
	var acc *account
	if ok {
		acc = s.accounts[id]
	}
	s.mu.Unlock()

	if acc == nil {
		return "", ErrUnauthorized
	}
	if !cryptox.CheckVerifier(cryptox.DeriveMasterKey([]byte(password), acc.Salt), acc.Verifier) {
		return "", ErrUnauthorized
	}
	return acc.ID, nil
}

// Profile returns the profile record of uid with upper-case keys, as the
// production backend answers.
func (s *Store) Profile(uid string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return profileRecord(acc), nil
}

func profileRecord(acc *account) map[string]any {
	p := acc.Profile
	images := append([]string{}, acc.Images...)
	return map[string]any{
		"UID":           acc.ID,
		"NAME":          p.Name,
		"EMAIL":         p.Email,
		"PHONE":         p.Phone,
		"CITY":          p.City,
		"COUNTRY":       p.Country,
		"PROFESSION":    p.Profession,
		"BIRTH_CITY":    p.BirthCity,
		"BIRTH_COUNTRY": p.BirthCountry,
		"DOB":           p.DOB,
		"TOB":           p.TOB,
		"GENDER":        p.Gender,
		"HOBBIES":       strings.Join(p.Hobbies, ","),
		"IMAGES":        images,
	}
}

// AddImages appends images to the profile of uid.
func (s *Store) AddImages(uid string, images []string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[uid]
	if !ok {
		return nil, ErrNotFound
	}
	if len(acc.Images)+len(images) > MaxImages {
		return nil, fmt.Errorf("%w: at most %d images", ErrInvalid, MaxImages)
	}
	for _, img := range images {
		if !strings.HasPrefix(img, "data:") && !strings.HasPrefix(img, "http") {
			img = "data:image/jpeg;base64," + img
		}
		acc.Images = append(acc.Images, img)
	}
	return profileRecord(acc), nil
}

// Score is the deterministic compatibility of two users on the 0..36 scale.
func Score(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(a + "|" + b))
	return float64(h.Sum32() % 37)
}

// relation returns the queue tag subject holds in viewer's view.
func (s *Store) relation(viewer, subject string) string {
	switch {
	case s.skipped[viewer][subject]:
		return models.TagNone
	case s.aligned[viewer][subject] && s.aligned[subject][viewer]:
		return models.TagMatched
	case s.aligned[viewer][subject]:
		return models.TagAwaiting
	}
	return models.TagRecommendations
}

// Cards lists the recommendation cards viewer sees under tag, in
// registration order. An empty tag lists every queue.
func (s *Store) Cards(viewer, tag string) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[viewer]; !ok {
		return nil, ErrNotFound
	}

	cards := make([]map[string]any, 0)
	for _, id := range s.order {
		if id == viewer {
			continue
		}
		rel := s.relation(viewer, id)
		if rel == models.TagNone || (tag != "" && rel != tag) {
			continue
		}
		cards = append(cards, map[string]any{
			"recommendation_uid": id,
			"score":              Score(viewer, id),
			"queue":              rel,
			"user_align":         s.aligned[id][viewer],
		})
	}
	return cards, nil
}

func mark(m map[string]map[string]bool, a, b string, v bool) {
	if !v {
		delete(m[a], b)
		return
	}
	if m[a] == nil {
		m[a] = make(map[string]bool)
	}
	m[a][b] = true
}

// Act records viewer's decision about subject. Aligning with someone who
// already aligned back makes a match; otherwise the subject awaits. Skipping
// removes the subject from every queue.
func (s *Store) Act(viewer string, kind models.ActionKind, subject string) (ActionOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.accounts[viewer]
	if !ok {
		return ActionOutcome{}, ErrNotFound
	}
	other, ok := s.accounts[subject]
	if !ok {
		return ActionOutcome{}, ErrNotFound
	}
	if viewer == subject {
		return ActionOutcome{}, fmt.Errorf("%w: cannot act on yourself", ErrInvalid)
	}

	out := ActionOutcome{Queue: models.TagNone, Message: models.TagNone, UserAlign: s.aligned[subject][viewer]}
	switch kind {
	case models.ActionAlign:
		mark(s.skipped, viewer, subject, false)
		mark(s.aligned, viewer, subject, true)
		if s.aligned[subject][viewer] {
			out.Queue = models.TagMatched
			out.Message = fmt.Sprintf("It's a match! You and %s aligned.", other.Profile.Name)
			s.notifyLocked(subject, fmt.Sprintf("It's a match! You and %s aligned.", me.Profile.Name))
		} else {
			out.Queue = models.TagAwaiting
			s.notifyLocked(subject, "Someone new has aligned with you.")
		}
	case models.ActionSkip:
		mark(s.aligned, viewer, subject, false)
		mark(s.skipped, viewer, subject, true)
	default:
		return ActionOutcome{}, fmt.Errorf("%w: unknown action %q", ErrInvalid, kind)
	}
	return out, nil
}

func (s *Store) notifyLocked(uid, msg string) {
	s.notifications[uid] = append(s.notifications[uid], models.Notification{
		ID:      uuid.NewString(),
		Message: msg,
		Updated: s.now().UTC().Format(time.RFC3339),
	})
}

// Notifications returns the notifications of uid, newest first.
func (s *Store) Notifications(uid string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[uid]
	out := make([]models.Notification, len(list))
	for i, n := range list {
		out[len(list)-1-i] = n
	}
	return out
}

var destinyQuestions = []string{
	"What qualities matter most to you in a partner?",
	"How important are shared traditions and values to you?",
	"Where would you like to build your life together?",
}

const destinyDone = "Thank you! I've saved your preferences and will use them for your recommendations."

// Preference feeds one answer to the preference assistant of uid and
// returns the next prompt. The last answer completes the conversation.
func (s *Store) Preference(uid, input string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[uid]; !ok {
		return "", false, ErrNotFound
	}
	if strings.TrimSpace(input) == "" {
		return "", false, fmt.Errorf("%w: empty input", ErrInvalid)
	}

	step := s.destinyStep[uid]
	if step > 0 {
		s.preferences[uid] = append(s.preferences[uid], input)
	}
	if step >= len(destinyQuestions) {
		delete(s.destinyStep, uid)
		return destinyDone, true, nil
	}
	s.destinyStep[uid] = step + 1
	return destinyQuestions[step], false, nil
}

// Preferences returns the answers uid gave the assistant.
func (s *Store) Preferences(uid string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.preferences[uid]...)
}

func pairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "|" + ids[1]
}

// Conversation returns the id of the conversation between two matched
// users, creating it on first use.
func (s *Store) Conversation(a, b string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a]; !ok {
		return "", ErrNotFound
	}
	if _, ok := s.accounts[b]; !ok {
		return "", ErrNotFound
	}
	if s.relation(a, b) != models.TagMatched {
		return "", ErrNotMatched
	}

	key := pairKey(a, b)
	if id, ok := s.pairs[key]; ok {
		return id, nil
	}
	c := &conversation{ID: "CH" + strings.ReplaceAll(uuid.NewString(), "-", ""), Members: [2]string{a, b}}
	s.conversations[c.ID] = c
	s.pairs[key] = c.ID
	return c.ID, nil
}

// History returns the lines of conversation id. uid must be a member.
func (s *Store) History(id, uid string) ([]models.ChatLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.member(uid) {
		return nil, ErrNotMatched
	}
	return append([]models.ChatLine{}, c.Lines...), nil
}

// Post appends a line by uid to conversation id.
func (s *Store) Post(id, uid, body, media string) (models.ChatLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok {
		return models.ChatLine{}, ErrNotFound
	}
	if !c.member(uid) {
		return models.ChatLine{}, ErrNotMatched
	}
	if strings.TrimSpace(body) == "" && media == "" {
		return models.ChatLine{}, fmt.Errorf("%w: empty message", ErrInvalid)
	}
	line := models.ChatLine{
		ID:     uuid.NewString(),
		Author: uid,
		Body:   body,
		Media:  media,
		Sent:   s.now().UTC(),
	}
	c.Lines = append(c.Lines, line)
	return line, nil
}
