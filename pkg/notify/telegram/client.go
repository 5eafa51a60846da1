// Package telegram provides a notify.Sink implementation backed by the
// Telegram Bot API.
package telegram

import (
	"bountywatch/pkg/notify"
	"bountywatch/pkg/serrors"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/jx"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// maxErrorBody bounds how much of an unexpected response is quoted in errors.
const maxErrorBody = 512

// Client sends messages to a single chat. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to the Bot API
	baseURL    string       // baseURL is the API root without a trailing slash
	token      string       // token is the bot credential
	chatID     string       // chatID is the recipient chat or user
}

// Ensure Client conforms to the notify.Sink interface at compile time.
var _ notify.Sink = (*Client)(nil)

// New constructs a Client. An empty baseURL selects DefaultBaseURL.
func New(httpClient *http.Client, baseURL, token, chatID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
	}
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool
	Description string
	RetryAfter  int
}

func decodeResponse(b []byte) (apiResponse, error) {
	var res apiResponse
	err := jx.DecodeBytes(b).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "ok":
			res.OK, err = d.Bool()
		case "description":
			res.Description, err = d.Str()
		case "parameters":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				if key != "retry_after" {
					return d.Skip()
				}
				var e error
				res.RetryAfter, e = d.Int()

				return e
			})
		default:
			err = d.Skip()
		}

		return err
	})

	return res, err
}

// Send posts message via sendMessage.
func (c *Client) Send(ctx context.Context, message string) error {
	// https://core.telegram.org/bots/api#sendmessage
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("chat_id", func(e *jx.Encoder) { e.Str(c.chatID) })
		e.Field("text", func(e *jx.Encoder) { e.Str(message) })
	})

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.baseURL+"/bot"+c.token+"/sendMessage",
		bytes.NewReader(e.Bytes()))
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the URL carries the bot token
		return fmt.Errorf("could not send request: %w", redact(err, c.token))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}

	res, decodeErr := decodeResponse(b)
	description := res.Description
	if decodeErr != nil || description == "" {
		description = strings.TrimSpace(string(b))
		if len(description) > maxErrorBody {
			description = description[:maxErrorBody]
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return serrors.With(serrors.ErrRateLimited, "rate limited (retry after %ds): %s", res.RetryAfter, description)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serrors.With(serrors.ErrUnavailable, "send message failed with status %d: %s", resp.StatusCode, description)
	}
	if decodeErr != nil {
		return serrors.Wrap(serrors.ErrDecode, decodeErr, "could not decode response")
	}
	if !res.OK {
		return fmt.Errorf("send message rejected: %s", description)
	}

	return nil
}

// redactedError hides the bot token from transport errors, which quote the
// request URL.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}

	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "<redacted>"), err: err}
}
