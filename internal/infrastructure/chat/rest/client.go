// Package rest implements chat.Gateway against a Discord-compatible REST
// API. All calls go through a circuit breaker so an outage on the chat side
// degrades the league instead of hanging it.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mygleague/inhouse/internal/domain/chat"
	"github.com/mygleague/inhouse/internal/platform/resilience"
	"github.com/mygleague/inhouse/internal/usecase"
)

const (
	channelTypeText     = 0
	channelTypeVoice    = 2
	channelTypeCategory = 4
)

type Config struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
	Breaker  resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	breaker    *resilience.CircuitBreaker
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.Breaker)

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.BotToken),
		breaker: resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		logger:  logger,
	}
}

type messagePayload struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
}

type channelPayload struct {
	Name     string `json:"name"`
	Type     int    `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
}

type channelResponse struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
}

type memberResponse struct {
	Roles []string `json:"roles"`
}

type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

func (c *Client) SendMessage(ctx context.Context, channelID, content string) (chat.Message, error) {
	var decoded messageResponse
	err := c.call(ctx, http.MethodPost, "/channels/"+channelID+"/messages", messagePayload{Content: content}, &decoded)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{ID: decoded.ID, ChannelID: decoded.ChannelID}, nil
}

func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	return c.call(ctx, http.MethodPatch, "/channels/"+channelID+"/messages/"+messageID, messagePayload{Content: content}, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.call(ctx, http.MethodDelete, "/channels/"+channelID+"/messages/"+messageID, nil, nil)
}

func (c *Client) CreateCategory(ctx context.Context, guildID, name string) (chat.Channel, error) {
	return c.createChannel(ctx, guildID, channelPayload{Name: name, Type: channelTypeCategory})
}

func (c *Client) CreateTextChannel(ctx context.Context, guildID, parentID, name string) (chat.Channel, error) {
	return c.createChannel(ctx, guildID, channelPayload{Name: name, Type: channelTypeText, ParentID: parentID})
}

func (c *Client) CreateVoiceChannel(ctx context.Context, guildID, parentID, name string) (chat.Channel, error) {
	return c.createChannel(ctx, guildID, channelPayload{Name: name, Type: channelTypeVoice, ParentID: parentID})
}

func (c *Client) createChannel(ctx context.Context, guildID string, payload channelPayload) (chat.Channel, error) {
	var decoded channelResponse
	err := c.call(ctx, http.MethodPost, "/guilds/"+guildID+"/channels", payload, &decoded)
	if err != nil {
		return chat.Channel{}, err
	}
	return chat.Channel{ID: decoded.ID, ParentID: decoded.ParentID, Name: decoded.Name}, nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	return c.call(ctx, http.MethodDelete, "/channels/"+channelID, nil, nil)
}

func (c *Client) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	var decoded memberResponse
	err := c.call(ctx, http.MethodGet, "/guilds/"+guildID+"/members/"+userID, nil, &decoded)
	if err != nil {
		if isNotFoundCall(err) {
			return false, nil
		}
		return false, err
	}
	for _, r := range decoded.Roles {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) FetchUser(ctx context.Context, userID string) (chat.User, bool, error) {
	var decoded userResponse
	err := c.call(ctx, http.MethodGet, "/users/"+userID, nil, &decoded)
	if err != nil {
		if isNotFoundCall(err) {
			return chat.User{}, false, nil
		}
		return chat.User{}, false, err
	}
	display := decoded.GlobalName
	if strings.TrimSpace(display) == "" {
		display = decoded.Username
	}
	return chat.User{ID: decoded.ID, Display: display}, true, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chat api status %d: %s", e.code, e.body)
}

func isNotFoundCall(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusNotFound
	}
	return false
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	if err := c.breaker.Allow(); err != nil {
		return fmt.Errorf("%w: chat circuit open", usecase.ErrDependencyUnavailable)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := sonic.Marshal(payload)
		if err != nil {
			c.breaker.RecordSuccess()
			return crerr.Wrap(err, "marshal chat payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.breaker.RecordSuccess()
		return crerr.Wrap(err, "create chat request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("%w: chat request failed: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.breaker.RecordFailure()
		return crerr.Wrap(err, "read chat response")
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		c.breaker.RecordFailure()
		c.logger.WarnContext(ctx, "chat api transient failure",
			"method", method,
			"path", path,
			"status_code", resp.StatusCode,
		)
		return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, &statusError{code: resp.StatusCode, body: truncate(raw, 512)})
	}
	c.breaker.RecordSuccess()

	if resp.StatusCode/100 != 2 {
		return &statusError{code: resp.StatusCode, body: truncate(raw, 512)}
	}

	if out != nil && len(raw) > 0 {
		if err := sonic.Unmarshal(raw, out); err != nil {
			return crerr.Wrap(err, "unmarshal chat response")
		}
	}
	return nil
}

func truncate(raw []byte, max int) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > max {
		return s[:max] + "...(truncated)"
	}
	return s
}
