package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	chatdomain "course_chat_service/internal/chat/domain"
	memberdomain "course_chat_service/internal/member/domain"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Client chat service HTTP client. The session cookie set by Login is kept
// in a cookie jar; UserID/DisplayName are sent along for shared identity mode.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	userID      string
	displayName string
}

// Option client option
type Option func(*Client)

// WithIdentity identity sent in request bodies (shared identity mode)
func WithIdentity(userID, displayName string) Option {
	return func(c *Client) {
		c.userID = userID
		c.displayName = displayName
	}
}

// WithTimeout per request timeout, default 10s
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient 建立 Client
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", serverURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type loginResponse struct {
	Success bool                 `json:"success"`
	User    memberdomain.Profile `json:"user"`
}

// Login start a session, the cookie is kept for later requests
func (c *Client) Login(ctx context.Context, username, password string) (memberdomain.Profile, error) {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	if err != nil {
		return memberdomain.Profile{}, err
	}
	return out.User, nil
}

// Logout end the session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// CurrentUser profile of the session owner
func (c *Client) CurrentUser(ctx context.Context) (memberdomain.Profile, error) {
	var out memberdomain.Profile
	err := c.do(ctx, http.MethodGet, "/api/user", nil, &out)
	return out, err
}

// Courses course catalog
func (c *Client) Courses(ctx context.Context) ([]chatdomain.Course, error) {
	var out []chatdomain.Course
	err := c.do(ctx, http.MethodGet, "/api/courses", nil, &out)
	return out, err
}

// ListMessages messages of a course
func (c *Client) ListMessages(ctx context.Context, courseID string) ([]chatdomain.Message, error) {
	var out []chatdomain.Message
	err := c.do(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(courseID), nil, &out)
	return out, err
}

// CreateMessage post text to a course
func (c *Client) CreateMessage(ctx context.Context, courseID, text string) (chatdomain.Message, error) {
	body := map[string]string{"courseId": courseID, "text": text}
	if c.userID != "" {
		body["userId"] = c.userID
		body["displayName"] = c.displayName
	}
	var out chatdomain.Message
	err := c.do(ctx, http.MethodPost, "/api/messages", body, &out)
	return out, err
}

type updateRequest struct {
	chatdomain.MessagePatch
	UserID string `json:"userId,omitempty"`
}

// UpdateMessage apply a patch to an own message
func (c *Client) UpdateMessage(ctx context.Context, messageID string, patch chatdomain.MessagePatch) (chatdomain.Message, error) {
	var out chatdomain.Message
	err := c.do(ctx, http.MethodPut, "/api/messages/"+url.PathEscape(messageID), updateRequest{MessagePatch: patch, UserID: c.userID}, &out)
	return out, err
}

// DeleteMessage soft delete an own message
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	path := "/api/messages/" + url.PathEscape(messageID)
	if c.userID != "" {
		path += "?userId=" + url.QueryEscape(c.userID)
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetPreference selected course of the current user
func (c *Client) GetPreference(ctx context.Context) (chatdomain.Preference, error) {
	path := "/api/preferences"
	if c.userID != "" {
		path += "/" + url.PathEscape(c.userID)
	}
	var out chatdomain.Preference
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// SetPreference store the selected course
func (c *Client) SetPreference(ctx context.Context, course string) error {
	body := map[string]string{"selectedCourse": course}
	if c.userID != "" {
		body["userId"] = c.userID
	}
	return c.do(ctx, http.MethodPost, "/api/preferences", body, nil)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e errorResponse
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return errprocess.FromHTTPStatus(resp.StatusCode, e.Error)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
