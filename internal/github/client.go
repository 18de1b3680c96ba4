// internal/github/client.go
package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"commit-harvester/internal/model"
)

const searchPageSize = 100

// Client is a wrapper around the go-github client, used by the catalog
// discovery job.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. The provided token
// is used to create an authenticated http.Client; an empty token yields an
// unauthenticated client with lower rate limits.
func NewClient(token string, logger *slog.Logger) *Client {
	var gh *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = github.NewClient(nil)
	}
	return &Client{gh: gh, logger: logger}
}

// OverrideBaseURL points the client at a different API endpoint. Used by
// tests.
func (c *Client) OverrideBaseURL(baseURL string) error {
	gh, err := c.gh.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return err
	}
	c.gh = gh
	return nil
}

// SearchByTopic returns up to limit repositories matching a topic keyword
// with at least minStars stars, most-starred first. Pagination is handled
// transparently.
func (c *Client) SearchByTopic(ctx context.Context, topic string, minStars, limit int) ([]model.TrackedRepo, error) {
	query := fmt.Sprintf("%s in:description,topics,readme stars:>=%d", topic, minStars)
	opts := &github.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: searchPageSize,
		},
	}

	var found []model.TrackedRepo
	for {
		c.logger.Debug("Searching repositories", "topic", topic, "page", opts.Page)

		result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", topic, err)
		}

		for _, r := range result.Repositories {
			found = append(found, model.TrackedRepo{
				FullName: r.GetFullName(),
				Topic:    topic,
				Stars:    r.GetStargazersCount(),
			})
			if len(found) >= limit {
				return found, nil
			}
		}

		if resp.NextPage == 0 {
			return found, nil
		}
		opts.Page = resp.NextPage
	}
}
