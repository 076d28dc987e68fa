// Package devserver is an in-memory implementation of the Aligned backend
// for local development and integration tests. It serves the REST contract
// the client speaks plus the messaging websocket.
package devserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
	"github.com/aligned-app/aligned/internal/logging"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

const maxUploadBytes = 32 << 20

type ctxKey string

const userIDKey ctxKey = "userID"

// Server routes the backend endpoints onto a Store.
type Server struct {
	store      *Store
	secret     []byte
	sessionTTL time.Duration
	chatTTL    time.Duration
	log        logging.Logger
	hub        *Hub
}

func NewServer(store *Store, secret []byte, sessionTTL, chatTTL time.Duration, log logging.Logger) *Server {
	return &Server{
		store:      store,
		secret:     secret,
		sessionTTL: sessionTTL,
		chatTTL:    chatTTL,
		log:        log,
		hub:        NewHub(store, secret, log),
	}
}

// Handler returns the routed, CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/account:login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/verify:email", s.verifyEmail).Methods(http.MethodPost)
	r.HandleFunc("/account:create", s.createAccount).Methods(http.MethodPost)
	r.HandleFunc("/e2echat:ws", s.hub.ServeWS).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/get:profile/{uid}", s.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/get:notifications/{uid}", s.getNotifications).Methods(http.MethodGet)
	api.HandleFunc("/get:{queue:recommendations|matches|awaiting}/{uid}", s.getQueue).Methods(http.MethodGet)
	api.HandleFunc("/update:profile", s.updateProfile).Methods(http.MethodPost)
	api.HandleFunc("/account:action", s.action).Methods(http.MethodPost)
	api.HandleFunc("/chat:preference", s.chatPreference).Methods(http.MethodPost)
	api.HandleFunc("/e2echat:token/{uid}", s.chatToken).Methods(http.MethodGet)
	api.HandleFunc("/e2echat:conversation", s.conversation).Methods(http.MethodPost)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

// statusRecorder captures the response status for request logging. It
// passes hijacking through so websocket upgrades still work.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug(r.Context(), "request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		uid, err := UserIDFromToken(tok, ScopeSession, s.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, uid)))
	})
}

func caller(r *http.Request) string {
	uid, _ := r.Context().Value(userIDKey).(string)
	return uid
}

// requireSelf rejects requests that act on behalf of another user.
func requireSelf(w http.ResponseWriter, r *http.Request, uid string) bool {
	if uid != caller(r) {
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotMatched):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

// readMetadata decodes the JSON "metadata" field of a multipart form.
func readMetadata(r *http.Request, dst any) error {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	meta := r.FormValue("metadata")
	if meta == "" {
		return fmt.Errorf("%w: missing metadata", ErrInvalid)
	}
	if err := json.Unmarshal([]byte(meta), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func readJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readMetadata(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	uid, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"LOGIN": "FAILED", "MESSAGE": "Invalid email or password"})
		return
	}

	token, err := GenerateToken(uid, ScopeSession, s.secret, s.sessionTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	profile, err := s.store.Profile(uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cards, err := s.store.Cards(uid, "")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	profile["LOGIN"] = "SUCCESSFUL"
	profile["TOKEN"] = token
	profile["MESSAGE"] = "Login successful"
	profile["RECOMMENDATION_CARDS"] = cards
	profile["NOTIFICATIONS"] = s.store.Notifications(uid)
	s.log.Info(r.Context(), "user logged in", "uid", uid)
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readMetadata(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.store.EmailAvailable(req.Email) {
		writeJSON(w, http.StatusOK, map[string]any{"verify": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verify":  false,
		"message": "Email already exists. Please use a different email.",
	})
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := readMetadata(r, &reg); err != nil {
		s.fail(w, r, err)
		return
	}

	var images [][]byte
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		images = append(images, data)
	}

	uid, err := s.store.CreateAccount(reg, images)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info(r.Context(), "account created", "uid", uid)
	writeJSON(w, http.StatusCreated, map[string]string{"uid": uid, "message": "Account created"})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.Profile(mux.Vars(r)["uid"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID    string `json:"UID"`
		Images []struct {
			Data string `json:"data"`
		} `json:"IMAGES"`
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !requireSelf(w, r, req.UID) {
		return
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, img.Data)
	}
	profile, err := s.store.AddImages(req.UID, images)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) getQueue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !requireSelf(w, r, vars["uid"]) {
		return
	}
	q, err := models.ParseQueue(vars["queue"])
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", ErrInvalid, err))
		return
	}
	cards, err := s.store.Cards(vars["uid"], q.Tag())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{string(q): cards})
}

func (s *Server) action(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID     string `json:"uid"`
		Action  string `json:"action"`
		Subject string `json:"recommendation_uid"`
	}
	if err := readMetadata(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !requireSelf(w, r, req.UID) {
		return
	}

	out, err := s.store.Act(req.UID, models.ActionKind(strings.ToLower(req.Action)), req.Subject)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"error":      models.StatusOK,
		"queue":      out.Queue,
		"message":    out.Message,
		"user_align": out.UserAlign,
	})
}

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	if !requireSelf(w, r, uid) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": s.store.Notifications(uid)})
}

func (s *Server) chatPreference(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID   string `json:"uid"`
		Input string `json:"user_input"`
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !requireSelf(w, r, req.UID) {
		return
	}
	msg, done, err := s.store.Preference(req.UID, req.Input)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DestinyReply{Message: msg, Completed: done})
}

func (s *Server) chatToken(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	if !requireSelf(w, r, uid) {
		return
	}
	token, err := GenerateToken(uid, ScopeChat, s.secret, s.chatTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID1 string `json:"uid1"`
		UID2 string `json:"uid2"`
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if me := caller(r); me != req.UID1 && me != req.UID2 {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	id, err := s.store.Conversation(req.UID1, req.UID2)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"conversation_sid": id})
}
