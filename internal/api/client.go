package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// defaultTimeout covers control calls (login, chat management, search).
	defaultTimeout = 30 * time.Second
	// messageTimeout is deliberately long: a message send blocks until the
	// assistant has generated its reply.
	messageTimeout = 5 * time.Minute
)

// Client talks to the server's web API. It is stateless per call apart from
// the bearer token; all methods are synchronous and safe to call from the
// single REPL goroutine.
type Client struct {
	baseURL string
	token   string
	control *http.Client
	message *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, insecure bool, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		control: &http.Client{Timeout: defaultTimeout, Transport: transport},
		message: &http.Client{Timeout: messageTimeout, Transport: transport},
		log:     log,
	}
}

// SetToken sets the bearer token attached to every subsequent call.
func (c *Client) SetToken(token string) { c.token = token }

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token         string `json:"token"`
		SessionHandle string `json:"sessionHandle"`
	}
	if err := c.do(ctx, c.control, http.MethodPost, "/v1/login", body, &out); err != nil {
		return "", err
	}
	if out.Token != "" {
		return out.Token, nil
	}
	return out.SessionHandle, nil
}

// CreateChat starts a new chat, optionally scoped to an incident or an
// object (at most one; zero means unset). With no scope the request body is
// omitted entirely.
func (c *Client) CreateChat(ctx context.Context, incidentID, objectID int64) (int64, error) {
	var body interface{}
	switch {
	case incidentID != 0:
		body = map[string]int64{"incidentId": incidentID}
	case objectID != 0:
		body = map[string]int64{"objectId": objectID}
	}
	var out struct {
		ChatID int64 `json:"chatId"`
	}
	if err := c.do(ctx, c.control, http.MethodPost, "/v1/ai/chat", body, &out); err != nil {
		return 0, err
	}
	return out.ChatID, nil
}

// SendMessage posts one user message and blocks until the reply arrives,
// using the extended message timeout. chatContext is attached only when
// non-empty.
func (c *Client) SendMessage(ctx context.Context, chatID int64, message string, chatContext map[string]int64) (*ChatResponse, error) {
	body := map[string]interface{}{"message": message}
	if len(chatContext) > 0 {
		body["context"] = chatContext
	}
	var out ChatResponse
	path := fmt.Sprintf("/v1/ai/chat/%d/message", chatID)
	if err := c.do(ctx, c.message, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollQuestion returns the chat's pending question, or nil when there is none.
func (c *Client) PollQuestion(ctx context.Context, chatID int64) (*Question, error) {
	var out struct {
		Question *Question `json:"question"`
	}
	path := fmt.Sprintf("/v1/ai/chat/%d/question", chatID)
	if err := c.do(ctx, c.control, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Question, nil
}

// AnswerQuestion submits the user's answer. option is only meaningful for
// multiple-choice questions; -1 signals "not applicable".
func (c *Client) AnswerQuestion(ctx context.Context, chatID, questionID int64, positive bool, option int) error {
	body := map[string]interface{}{
		"questionId":     questionID,
		"positive":       positive,
		"selectedOption": option,
	}
	path := fmt.Sprintf("/v1/ai/chat/%d/answer", chatID)
	return c.do(ctx, c.control, http.MethodPost, path, body, nil)
}

// ClearChat discards the chat's conversation history on the server.
func (c *Client) ClearChat(ctx context.Context, chatID int64) error {
	path := fmt.Sprintf("/v1/ai/chat/%d/clear", chatID)
	return c.do(ctx, c.control, http.MethodPost, path, nil, nil)
}

// DeleteChat destroys the chat on the server.
func (c *Client) DeleteChat(ctx context.Context, chatID int64) error {
	path := fmt.Sprintf("/v1/ai/chat/%d", chatID)
	return c.do(ctx, c.control, http.MethodDelete, path, nil, nil)
}

// FindObject searches objects by name and returns the first match. A 404 or
// an empty result set yields (nil, nil), not an error.
func (c *Client) FindObject(ctx context.Context, name string) (*Object, error) {
	var raw json.RawMessage
	err := c.do(ctx, c.control, http.MethodPost, "/v1/objects/search", map[string]string{"name": name}, &raw)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	objects, err := decodeObjectList(raw)
	if err != nil {
		return nil, fmt.Errorf("decode object list: %w", err)
	}
	if len(objects) == 0 {
		return nil, nil
	}
	return &objects[0], nil
}

// decodeObjectList accepts both response shapes the server produces: a bare
// array or an {"objects": [...]} wrapper.
func decodeObjectList(raw json.RawMessage) ([]Object, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var objects []Object
		if err := json.Unmarshal(trimmed, &objects); err != nil {
			return nil, err
		}
		return objects, nil
	}
	var wrapper struct {
		Objects []Object `json:"objects"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Objects, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// Transport errors (including context cancellation) pass through
	// unwrapped so callers can check errors.Is(err, context.Canceled).
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newServerError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
