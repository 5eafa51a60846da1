// Package targets turns newly discovered assets into candidate URLs that can
// be handed to a scanner.
package targets

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"net/url"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultExclude drops government and education hosts.
const DefaultExclude = `\.(gov|edu)$`

const matchTimeout = 100 * time.Millisecond

// commonPrefixes are tried below every *.domain wildcard.
var commonPrefixes = []string{"www", "api", "admin", "portal", "app", "beta", "staging", "dev"} //nolint: gochecknoglobals

// Target is a candidate scan URL derived from an asset.
type Target struct {
	URL      string          `json:"url"`
	Asset    string          `json:"asset"`
	Program  string          `json:"program"`
	Platform domain.Platform `json:"platform"`
}

// Expander derives targets and filters out excluded hosts.
type Expander struct {
	exclude *regexp2.Regexp
}

// NewExpander compiles the exclusion pattern. An empty pattern excludes nothing.
func NewExpander(exclude string) (*Expander, error) {
	if exclude == "" {
		return &Expander{}, nil
	}

	re, err := regexp2.Compile(exclude, regexp2.IgnoreCase)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid exclusion pattern %q", exclude)
	}
	re.MatchTimeout = matchTimeout

	return &Expander{exclude: re}, nil
}

func candidates(asset domain.Asset) []string {
	id := strings.TrimSpace(asset.Asset)
	switch strings.ToLower(asset.Type) {
	case "url":
		if strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://") {
			return []string{id}
		}

		return []string{"https://" + id}
	case "wildcard":
		base, ok := strings.CutPrefix(id, "*.")
		if !ok {
			return []string{"https://" + id}
		}
		out := make([]string, 0, len(commonPrefixes)+1)
		out = append(out, "https://"+base)
		for _, p := range commonPrefixes {
			out = append(out, "https://"+p+"."+base)
		}

		return out
	default:
		return nil
	}
}

func (e *Expander) excluded(host string) bool {
	if e.exclude == nil {
		return false
	}
	ok, err := e.exclude.MatchString(host)

	// a pattern that times out on a host is treated as a match
	return ok || err != nil
}

// Expand returns the candidate URLs of a single asset, in a stable order.
func (e *Expander) Expand(asset domain.Asset) []Target {
	var out []Target
	for _, raw := range candidates(asset) {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		if e.excluded(u.Hostname()) {
			continue
		}
		out = append(out, Target{
			URL:      raw,
			Asset:    asset.Asset,
			Program:  asset.Program,
			Platform: asset.Platform,
		})
	}

	return out
}

// ExpandAll concatenates Expand over assets.
func (e *Expander) ExpandAll(assets []domain.Asset) []Target {
	out := make([]Target, 0, len(assets))
	for _, a := range assets {
		out = append(out, e.Expand(a)...)
	}

	return out
}
