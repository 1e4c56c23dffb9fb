// Package telegram talks to the Telegram Bot API: long-polling for updates and
// sending messages and stickers.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"timely-greeter/pkg/greeter"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// pollSlack is added to the long-poll timeout for the HTTP client deadline.
const pollSlack = 10 * time.Second

// Sender delivers outbound messages.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendSticker(ctx context.Context, chatID int64, fileID string) error
}

// APIError is a request the Bot API rejected.
type APIError struct {
	Method      string
	Description string
	StatusCode  int
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Method, e.StatusCode, e.Description)
}

// IsForbidden reports whether err means the bot may not write to the chat,
// typically because the user blocked it.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// Options configures a Client.
type Options struct {
	Logger      *slog.Logger
	BaseURL     string        // Defaults to DefaultAPIURL
	Token       string        // Bot token
	PollTimeout time.Duration // Longest long-poll the client will be asked for
	SendRate    float64       // Sends per second; 0 disables limiting
	RetryDelay  time.Duration // Base delay between send attempts; defaults to 1s
}

// Client is a Bot API client. It is safe for concurrent use.
type Client struct {
	poller     *http.Client
	sender     *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
	token      string
	retryDelay time.Duration
}

// New creates a Bot API client.
func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.SendRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.SendRate), 1)
	}

	return &Client{
		poller:     &http.Client{Timeout: opts.PollTimeout + pollSlack},
		sender:     &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		logger:     opts.Logger,
		baseURL:    baseURL,
		token:      opts.Token,
		retryDelay: retryDelay,
	}
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	OK          bool            `json:"ok"`
}

type apiUpdate struct {
	Message  *apiMessage `json:"message"`
	UpdateID int64       `json:"update_id"`
}

type apiMessage struct {
	Text     *string         `json:"text"`
	From     *apiUser        `json:"from"`
	Sticker  json.RawMessage `json:"sticker"`
	Photo    json.RawMessage `json:"photo"`
	Voice    json.RawMessage `json:"voice"`
	Video    json.RawMessage `json:"video"`
	Document json.RawMessage `json:"document"`
	Chat     apiChat         `json:"chat"`
}

type apiUser struct {
	Username string `json:"username"`
}

type apiChat struct {
	ID int64 `json:"id"`
}

// Updates long-polls for updates with id >= offset, waiting up to timeout.
func (c *Client) Updates(ctx context.Context, offset int64, timeout time.Duration) ([]greeter.Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(timeout/time.Second)))
	endpoint := c.endpoint("getUpdates") + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.poller.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", c.scrub(err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	result, err := decode(resp, "getUpdates")
	if err != nil {
		return nil, err
	}

	var raw []apiUpdate
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}

	updates := make([]greeter.Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, greeter.Update{ID: u.UpdateID, Message: convertMessage(u.Message)})
	}
	return updates, nil
}

func convertMessage(m *apiMessage) *greeter.Message {
	if m == nil {
		return nil
	}
	msg := &greeter.Message{ChatID: m.Chat.ID}
	if m.From != nil {
		msg.Username = m.From.Username
	}

	switch {
	case m.Text != nil:
		msg.Payload = greeter.Text(*m.Text)
	case len(m.Sticker) > 0:
		msg.Payload = greeter.Other{Kind: "sticker"}
	case len(m.Photo) > 0:
		msg.Payload = greeter.Other{Kind: "photo"}
	case len(m.Voice) > 0:
		msg.Payload = greeter.Other{Kind: "voice"}
	case len(m.Video) > 0:
		msg.Payload = greeter.Other{Kind: "video"}
	case len(m.Document) > 0:
		msg.Payload = greeter.Other{Kind: "document"}
	default:
		msg.Payload = greeter.Other{}
	}
	return msg
}

// SendMessage sends a text message to chatID.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, "sendMessage", chatID, map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
}

// SendSticker sends the sticker with the given file id to chatID.
func (c *Client) SendSticker(ctx context.Context, chatID int64, fileID string) error {
	return c.send(ctx, "sendSticker", chatID, map[string]any{
		"chat_id": chatID,
		"sticker": fileID,
	})
}

func (c *Client) send(ctx context.Context, method string, chatID int64, body map[string]any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var rejected *APIError
	err = retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(fmt.Errorf("rate limit wait: %w", err))
			}

			startTime := time.Now()
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(jsonData))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.sender.Do(req)
			duration := time.Since(startTime)
			if err != nil {
				err = c.scrub(err)
				c.logger.Warn("Bot API request failed, will retry",
					"method", method,
					"chat_id", chatID,
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}
			defer func() {
				if closeErr := resp.Body.Close(); closeErr != nil {
					c.logger.Warn("Failed to close response body", "error", closeErr)
				}
			}()

			if _, err := decode(resp, method); err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && permanent(apiErr.StatusCode) {
					rejected = apiErr
					return retry.Unrecoverable(err)
				}
				return err
			}

			c.logger.Debug("Bot API request completed",
				"method", method,
				"chat_id", chatID,
				"duration_ms", duration.Milliseconds())
			return nil
		},
		retry.Attempts(3),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(max(c.retryDelay/2, time.Millisecond)),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying Bot API send after error", "method", method, "attempt", n, "error", err)
		}),
	)
	if rejected != nil {
		return rejected
	}
	if err != nil {
		return fmt.Errorf("%s after retries: %w", method, err)
	}
	return nil
}

// permanent reports whether a status code will not change on retry.
func permanent(code int) bool {
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

// decode reads a Bot API envelope and returns its result.
func decode(resp *http.Response, method string) (json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var env apiResponse
	jsonErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Description: env.Description}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, jsonErr)
	}
	if !env.OK {
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Description: env.Description}
	}
	return env.Result, nil
}

// scrub removes the bot token from transport errors, which embed the URL.
func (c *Client) scrub(err error) error {
	var urlErr *url.Error
	if c.token != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<token>")
	}
	return err
}

func (c *Client) endpoint(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}
