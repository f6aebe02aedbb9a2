package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	appErrors "github.com/Zendevve/vscord/pkg/errors"
)

// Profile is what the identity provider knows about a token's owner.
type Profile struct {
	GithubID int64
	Username string
	Avatar   string
}

// Graph is the provider-side social graph snapshot, refreshed at every
// fresh login.
type Graph struct {
	Followers []int64
	Following []int64
}

// Provider mints nothing itself; it validates a client-supplied access
// token and reports profile plus graph. Calls carry a bounded budget:
// an unreachable provider returns an error, it never wedges the login.
type Provider interface {
	FetchProfile(ctx context.Context, token string) (*Profile, error)
	FetchGraph(ctx context.Context, token string) (*Graph, error)
}

// GitHubProvider speaks the REST v3 API.
type GitHubProvider struct {
	baseURL string
	client  *http.Client
}

func NewGitHubProvider(baseURL string, timeout time.Duration) *GitHubProvider {
	return &GitHubProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *GitHubProvider) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	var body struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.get(ctx, token, "/user", &body); err != nil {
		return nil, err
	}
	return &Profile{GithubID: body.ID, Username: body.Login, Avatar: body.AvatarURL}, nil
}

func (p *GitHubProvider) FetchGraph(ctx context.Context, token string) (*Graph, error) {
	followers, err := p.listIDs(ctx, token, "/user/followers")
	if err != nil {
		return nil, err
	}
	following, err := p.listIDs(ctx, token, "/user/following")
	if err != nil {
		return nil, err
	}
	return &Graph{Followers: followers, Following: following}, nil
}

func (p *GitHubProvider) listIDs(ctx context.Context, token, path string) ([]int64, error) {
	ids := make([]int64, 0, 32)
	for page := 1; ; page++ {
		var body []struct {
			ID int64 `json:"id"`
		}
		if err := p.get(ctx, token, fmt.Sprintf("%s?per_page=100&page=%d", path, page), &body); err != nil {
			return nil, err
		}
		for _, entry := range body {
			ids = append(ids, entry.ID)
		}
		if len(body) < 100 {
			return ids, nil
		}
	}
}

func (p *GitHubProvider) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "identity.get.NewRequest: ")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "identity.get.Do: ")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return appErrors.Unauthorized("identity provider rejected the token")
	case resp.StatusCode != http.StatusOK:
		return appErrors.Internal(fmt.Sprintf("identity provider returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "identity.get.Decode: ")
	}
	return nil
}
