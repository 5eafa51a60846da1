package telegram_test

import (
	"bountywatch/pkg/notify/telegram"
	"bountywatch/pkg/serrors"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc) *telegram.Client {
	return telegram.New(&http.Client{Transport: fn}, "", "123:abc", "42")
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClient_Send_success(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "api.telegram.org", r.URL.Host)
		require.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, map[string]string{"chat_id": "42", "text": "🆕 hello\n\"quoted\""}, body)

		return respond(http.StatusOK, `{"ok":true,"result":{"message_id":7,"chat":{"id":42}}}`), nil
	})

	require.NoError(t, c.Send(context.Background(), "🆕 hello\n\"quoted\""))
}

func TestClient_Send_customBaseURL(t *testing.T) {
	c := telegram.New(&http.Client{Transport: rtFunc(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "http://localhost:8081/botT/sendMessage", r.URL.String())

		return respond(http.StatusOK, `{"ok":true}`), nil
	})}, "http://localhost:8081/", "T", "1")

	require.NoError(t, c.Send(context.Background(), "x"))
}

func TestClient_Send_rateLimited(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusTooManyRequests,
			`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 5","parameters":{"retry_after":5}}`), nil
	})

	err := c.Send(context.Background(), "x")
	require.ErrorIs(t, err, serrors.ErrRateLimited)
	require.Contains(t, err.Error(), "retry after 5s")
	require.Contains(t, err.Error(), "Too Many Requests")
}

func TestClient_Send_badRequest(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest,
			`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`), nil
	})

	err := c.Send(context.Background(), "x")
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Contains(t, err.Error(), "chat not found")
}

func TestClient_Send_nonJSONError(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, "bad gateway\n"), nil
	})

	err := c.Send(context.Background(), "x")
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Contains(t, err.Error(), "bad gateway")
}

func TestClient_Send_largeErrorBodyIsTruncated(t *testing.T) {
	page := "<html>" + strings.Repeat("x", 4096) + "</html>"
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, page), nil
	})

	err := c.Send(context.Background(), "x")
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Contains(t, err.Error(), "<html>xxx")
	require.NotContains(t, err.Error(), "</html>")
	require.Less(t, len(err.Error()), 1024)
}

func TestClient_Send_notOK(t *testing.T) {
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, `{"ok":false,"description":"weird"}`), nil
	})

	err := c.Send(context.Background(), "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "weird")
}

func TestClient_Send_transportErrorRedactsToken(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	c := newTestClient(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})

	err := c.Send(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	require.NotContains(t, err.Error(), "123:abc")
}
