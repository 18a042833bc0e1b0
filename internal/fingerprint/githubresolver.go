package fingerprint

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
)

// TagResolver resolves a compiler CommitHash to a release tag such as
// "1.72.0". Implementations hit an external, rate-limited service, so
// callers should treat failures as recoverable and fall back to a
// lower-confidence toolchain choice rather than aborting the pipeline.
type TagResolver interface {
	Resolve(hash CommitHash) (string, error)
}

var tagPattern = regexp.MustCompile(`releases/tag/([0-9.]+)`)

// GitHubResolver resolves against rust-lang/rust's commit and tag listing.
type GitHubResolver struct {
	client *resty.Client
}

// NewGitHubResolver returns a resolver bounded by timeout; zero selects a
// 10 second default.
func NewGitHubResolver(timeout time.Duration) *GitHubResolver {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GitHubResolver{client: resty.New().SetTimeout(timeout)}
}

// Resolve tries the exact commit-to-tag lookup first and falls back to the
// repository's most recent release tag when the commit isn't tagged
// directly (a point release built from a later patch commit, say).
func (r *GitHubResolver) Resolve(hash CommitHash) (string, error) {
	if tag, err := r.resolveFromCommit(hash); err == nil {
		return tag, nil
	}
	return r.latestTag()
}

func (r *GitHubResolver) resolveFromCommit(hash CommitHash) (string, error) {
	url := fmt.Sprintf("https://github.com/rust-lang/rust/branch_commits/%s", hash)
	resp, err := r.client.R().Get(url)
	if err != nil {
		return "", err
	}
	m := tagPattern.FindSubmatch(resp.Body())
	if m == nil {
		return "", fmt.Errorf("no release tag found for commit %s", hash)
	}
	return string(m[1]), nil
}

func (r *GitHubResolver) latestTag() (string, error) {
	resp, err := r.client.R().Get("https://github.com/rust-lang/rust/tags")
	if err != nil {
		return "", err
	}
	m := tagPattern.FindSubmatch(resp.Body())
	if m == nil {
		return "", fmt.Errorf("no release tags found")
	}
	return string(m[1]), nil
}
