package httpfeed_test

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/feed"
	"bountywatch/pkg/feed/httpfeed"
	"bountywatch/pkg/serrors"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const feedURL = "https://raw.githubusercontent.com/arkadiyt/bounty-targets-data/main/data/hackerone_data.json"

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestSource(fn rtFunc) *httpfeed.Source {
	return httpfeed.New(&http.Client{Transport: fn}, domain.PlatformHackerOne, feedURL, feed.DecodePrograms)
}

func TestSource_Programs_success(t *testing.T) {
	s := newTestSource(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "raw.githubusercontent.com", r.URL.Host)
		require.Equal(t, "/arkadiyt/bounty-targets-data/main/data/hackerone_data.json", r.URL.Path)

		return &http.Response{
			StatusCode: http.StatusOK,
			Body: io.NopCloser(strings.NewReader(
				`[{"name":"P1","bounty":true,"assets":[{"asset_identifier":"a.com","asset_type":"URL"}]}]`)),
		}, nil
	})

	require.Equal(t, domain.PlatformHackerOne, s.Platform())

	programs, err := s.Programs(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Program{
		{Name: "P1", Bounty: true, Assets: []domain.ProgramAsset{{Identifier: "a.com", Type: "URL"}}},
	}, programs)
}

func TestSource_Programs_non2xx(t *testing.T) {
	s := newTestSource(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusBadGateway, Body: io.NopCloser(strings.NewReader("upstream bad"))}, nil
	})

	_, err := s.Programs(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Contains(t, err.Error(), "upstream bad")
}

func TestSource_Programs_transportError(t *testing.T) {
	s := newTestSource(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	_, err := s.Programs(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestSource_Programs_decodeError(t *testing.T) {
	s := newTestSource(func(r *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"oops":true}`))}, nil
	})

	_, err := s.Programs(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrDecode)
	require.Contains(t, err.Error(), "HackerOne")
}
