// Package githubstore keeps the snapshot as a file committed to a GitHub
// repository, so the asset history doubles as a commit log.
package githubstore

import (
	"bountywatch/pkg/domain"
	"bountywatch/pkg/serrors"
	"bountywatch/pkg/snapshot"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

const (
	createMessage = "Initial asset list"
	updateMessage = "Update asset list"
)

// Store reads and commits snapshot files through the GitHub contents API.
type Store struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// Ensure Store conforms to the snapshot.Store interface at compile time.
var _ snapshot.Store = (*Store)(nil)

// NewClient returns a GitHub client authenticated with token. The given
// httpClient is used as the base transport, so its timeout applies to every
// API call.
func NewClient(httpClient *http.Client, token string) *github.Client {
	if token == "" {
		return github.NewClient(httpClient)
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	return github.NewClient(oauth2.NewClient(ctx, ts))
}

// New returns a store writing to owner/repo. An empty branch means the
// repository's default branch.
func New(client *github.Client, owner, repo, branch string) *Store {
	return &Store{client: client, owner: owner, repo: repo, branch: branch}
}

func (s *Store) branchRef() *string {
	if s.branch == "" {
		return nil
	}

	return github.String(s.branch)
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}

	return false
}

// file fetches the metadata and content of key.
func (s *Store) file(ctx context.Context, key string) (*github.RepositoryContent, error) {
	var opts *github.RepositoryContentGetOptions
	if s.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: s.branch}
	}

	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, key, opts)
	if err != nil {
		if isNotFound(resp, err) {
			return nil, serrors.Wrap(serrors.ErrNotFound, err, "snapshot %q not found in %s/%s", key, s.owner, s.repo)
		}

		return nil, fmt.Errorf("could not get contents of %s: %w", key, err)
	}
	if file == nil {
		return nil, serrors.With(serrors.ErrBadRequest, "%s in %s/%s is a directory", key, s.owner, s.repo)
	}

	return file, nil
}

// Load reads the snapshot committed at key.
func (s *Store) Load(ctx context.Context, key string) (domain.Snapshot, error) {
	file, err := s.file(ctx, key)
	if err != nil {
		return nil, err
	}

	// The contents API omits the body of files above 1MB; fall back to the blob.
	if file.GetEncoding() == "none" {
		b, _, err := s.client.Git.GetBlobRaw(ctx, s.owner, s.repo, file.GetSHA())
		if err != nil {
			return nil, fmt.Errorf("could not get blob %s: %w", file.GetSHA(), err)
		}

		return snapshot.Decode(b)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrDecode, err, "could not decode contents of %s", key)
	}

	return snapshot.Decode([]byte(content))
}

// Save commits the snapshot at key, creating the file when it does not exist.
func (s *Store) Save(ctx context.Context, key string, snap domain.Snapshot) error {
	b, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}

	opts := &github.RepositoryContentFileOptions{
		Content: b,
		Branch:  s.branchRef(),
	}

	file, err := s.file(ctx, key)
	switch {
	case err == nil:
		opts.Message = github.String(updateMessage)
		opts.SHA = file.SHA
		if _, _, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, key, opts); err != nil {
			return fmt.Errorf("could not update %s: %w", key, err)
		}
	case errors.Is(err, serrors.ErrNotFound):
		opts.Message = github.String(createMessage)
		if _, _, err := s.client.Repositories.CreateFile(ctx, s.owner, s.repo, key, opts); err != nil {
			return fmt.Errorf("could not create %s: %w", key, err)
		}
	default:
		return err
	}

	return nil
}
