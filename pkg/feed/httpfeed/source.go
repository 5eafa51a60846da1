// Package httpfeed provides a feed.Source that downloads a platform feed
// document over HTTP, e.g. the JSON files of the bounty-targets-data project.
package httpfeed

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/feed"
	"bountywatch/pkg/serrors"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of a failed response is quoted in errors.
const maxErrorBody = 512

// Source fetches one platform's feed from a fixed URL. It is safe for
// concurrent use.
type Source struct {
	httpClient *http.Client
	url        string
	platform   domain.Platform
	decode     feed.Decoder
}

// Ensure Source conforms to the feed.Source interface at compile time.
var _ feed.Source = (*Source)(nil)

// New constructs a Source for platform that GETs url with httpClient and
// decodes the body with decode.
func New(httpClient *http.Client, platform domain.Platform, url string, decode feed.Decoder) *Source {
	return &Source{
		httpClient: httpClient,
		url:        url,
		platform:   platform,
		decode:     decode,
	}
}

func (s *Source) Platform() domain.Platform { return s.platform }

// Programs downloads and decodes the feed. Transport failures and non-2xx
// answers are returned as plain errors, undecodable documents as
// serrors.ErrDecode.
func (s *Source) Programs(ctx context.Context) ([]domain.Program, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(b))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}

		return nil, serrors.With(serrors.ErrUnavailable, "%s feed returned %d: %s", s.platform, resp.StatusCode, snippet)
	}

	programs, err := s.decode(b)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s feed: %w", s.platform, err)
	}

	return programs, nil
}
