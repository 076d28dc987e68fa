package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aligned-app/aligned/internal/client/models"
)

const maxResponseBytes = 16 << 20

// HTTPClient talks to the backend over HTTP. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetToken stores the bearer token sent with authenticated requests.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type filePart struct {
	field    string
	filename string
	data     []byte
}

func (c *HTTPClient) endpoint(parts ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for i, p := range parts {
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (c *HTTPClient) do(ctx context.Context, method, target string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, mapError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, mapError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

func (c *HTTPClient) get(ctx context.Context, target string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, target, nil, "")
}

func (c *HTTPClient) postJSON(ctx context.Context, target string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, target, bytes.NewReader(b), "application/json")
}

// postMetadata sends payload as the "metadata" field of a multipart form,
// followed by any file parts.
func (c *HTTPClient) postMetadata(ctx context.Context, target string, payload any, files ...filePart) ([]byte, error) {
	meta, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("metadata", string(meta)); err != nil {
		return nil, err
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(f.data); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.do(ctx, http.MethodPost, target, &buf, w.FormDataContentType())
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	data, err := c.postMetadata(ctx, c.endpoint("/account:login"), map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	body, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(str(body, "LOGIN"), "SUCCESSFUL") {
		msg := str(body, "MESSAGE")
		if msg == "" {
			msg = "Invalid email or password"
		}
		return nil, &APIError{Status: http.StatusUnauthorized, Message: msg}
	}

	res := &models.LoginResult{
		UID:           str(body, "UID"),
		Token:         str(body, "TOKEN", "ACCESS_TOKEN"),
		Message:       str(body, "MESSAGE"),
		Profile:       body,
		Cards:         records(field(body, "RECOMMENDATION_CARDS")),
		Notifications: records(field(body, "NOTIFICATIONS")),
	}
	if res.Profile["email"] == nil && res.Profile["EMAIL"] == nil {
		res.Profile["email"] = email
	}
	if res.Token != "" {
		c.SetToken(res.Token)
	}
	return res, nil
}

// VerifyEmail reports whether email is still free. A false answer carries the
// server's explanation.
func (c *HTTPClient) VerifyEmail(ctx context.Context, email string) (bool, string, error) {
	data, err := c.postMetadata(ctx, c.endpoint("/verify:email"), map[string]string{"email": email})
	if err != nil {
		return false, "", err
	}

	var resp struct {
		Verify  *bool  `json:"verify"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return false, "", fmt.Errorf("decode verify response: %w", err)
	}

	switch {
	case resp.Verify != nil && *resp.Verify:
		return true, "", nil
	case resp.Verify != nil:
		msg := resp.Message
		if msg == "" {
			msg = "Email already exists. Please use a different email."
		}
		return false, msg, nil
	case resp.Error != "":
		return false, resp.Error, nil
	}
	return false, "", fmt.Errorf("%w: unexpected verify response", ErrRejected)
}

func (c *HTTPClient) CreateAccount(ctx context.Context, reg models.Registration, images [][]byte) error {
	files := make([]filePart, 0, len(images))
	for i, img := range images {
		files = append(files, filePart{
			field:    "images",
			filename: fmt.Sprintf("image_%d.jpg", i+1),
			data:     img,
		})
	}
	_, err := c.postMetadata(ctx, c.endpoint("/account:create"), reg, files...)
	return err
}

func (c *HTTPClient) GetProfile(ctx context.Context, uid string) (models.RawRecord, error) {
	data, err := c.get(ctx, c.endpoint("/get:profile", uid))
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, uid string, images []string) (models.RawRecord, error) {
	wrapped := make([]map[string]string, 0, len(images))
	for _, img := range images {
		wrapped = append(wrapped, map[string]string{"data": img})
	}

	data, err := c.postJSON(ctx, c.endpoint("/update:profile"), map[string]any{
		"UID":    uid,
		"IMAGES": wrapped,
	})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.RawRecord{}, nil
	}
	return decodeObject(data)
}

// GetQueue returns the raw cards of one triage queue. The answer is either
// {"<queue>": [...]} or a bare array.
func (c *HTTPClient) GetQueue(ctx context.Context, q models.Queue, uid string) ([]models.RawRecord, error) {
	data, err := c.get(ctx, c.endpoint("/get:"+string(q), uid))
	if err != nil {
		return nil, err
	}
	return decodeList(data, string(q))
}

func (c *HTTPClient) Act(ctx context.Context, actor string, kind models.ActionKind, subject string) (*models.ActionResult, error) {
	data, err := c.postMetadata(ctx, c.endpoint("/account:action"), map[string]string{
		"uid":                actor,
		"action":             string(kind),
		"recommendation_uid": subject,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Error     string `json:"error"`
		Status    string `json:"status"`
		Queue     any    `json:"queue"`
		Message   any    `json:"message"`
		UserAlign *bool  `json:"user_align"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode action response: %w", err)
	}

	res := &models.ActionResult{
		Status:               firstNonEmpty(resp.Status, resp.Error),
		Queue:                scalarString(resp.Queue),
		Message:              scalarString(resp.Message),
		HasExpressedInterest: resp.UserAlign,
	}
	if !res.OK() {
		return res, fmt.Errorf("%w: %s", ErrRejected, res.Status)
	}
	return res, nil
}

func (c *HTTPClient) GetNotifications(ctx context.Context, uid string) ([]models.RawRecord, error) {
	data, err := c.get(ctx, c.endpoint("/get:notifications", uid))
	if err != nil {
		return nil, err
	}
	return decodeList(data, "notifications")
}

func (c *HTTPClient) ChatPreference(ctx context.Context, uid, input string) (*models.DestinyReply, error) {
	data, err := c.postJSON(ctx, c.endpoint("/chat:preference"), map[string]string{
		"uid":        uid,
		"user_input": input,
	})
	if err != nil {
		return nil, err
	}

	var reply models.DestinyReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("decode preference reply: %w", err)
	}
	if reply.Message == "" {
		return nil, fmt.Errorf("%w: empty preference reply", ErrRejected)
	}
	return &reply, nil
}

func (c *HTTPClient) ChatToken(ctx context.Context, uid string) (string, error) {
	data, err := c.get(ctx, c.endpoint("/e2echat:token", uid))
	if err != nil {
		return "", err
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode chat token: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: no chat token", ErrRejected)
	}
	return resp.Token, nil
}

func (c *HTTPClient) Conversation(ctx context.Context, uid1, uid2 string) (string, error) {
	data, err := c.postJSON(ctx, c.endpoint("/e2echat:conversation"), map[string]string{
		"uid1": uid1,
		"uid2": uid2,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		ConversationSID string `json:"conversation_sid"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode conversation: %w", err)
	}
	if resp.ConversationSID == "" {
		return "", fmt.Errorf("%w: no conversation id", ErrRejected)
	}
	return resp.ConversationSID, nil
}

// Ping checks that the backend answers at all. Any status below 500 counts
// as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.get(ctx, c.endpoint("/health"))
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return nil
	}
	return err
}
