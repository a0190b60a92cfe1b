package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace-auction/internal/domain"
	"marketplace-auction/pkg/logger"
)

const (
	apiKeyHeader      = "X-Api-Key"
	accessTokenHeader = "X-Access-Token"
)

// HTTPClient talks to the marketplace open-platform API. It validates
// posts, resolves post ownership through user access tokens and manages
// the promotional widget shown on a post while its auction runs.
type HTTPClient struct {
	baseURL string
	apiKey  string
	appSlug string
	client  *http.Client
	log     logger.Logger
}

func NewHTTPClient(baseURL, apiKey, appSlug string, timeout time.Duration, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		appSlug: appSlug,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type postPayload struct {
	Token string `json:"token"`
	Title string `json:"title"`
	State string `json:"state"`
}

type userPostsPayload struct {
	Posts []postPayload `json:"posts"`
}

func (c *HTTPClient) ValidatePost(ctx context.Context, postToken string) (*domain.Post, error) {
	if postToken == "" {
		return nil, domain.ErrPostNotFound
	}

	url := fmt.Sprintf("%s/v1/open-platform/finder/post/%s", c.baseURL, postToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	rsp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace: get post %s: %w", postToken, err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		c.log.Warn("Post lookup failed", "post_token", postToken, "status", rsp.StatusCode)
		return nil, domain.ErrPostNotFound
	}

	var payload postPayload
	if err := json.NewDecoder(rsp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("marketplace: decode post %s: %w", postToken, err)
	}
	return &domain.Post{Token: payload.Token, Title: payload.Title}, nil
}

func (c *HTTPClient) FindPostOwnedBy(ctx context.Context, postToken, accessToken string) (*domain.Post, error) {
	if postToken == "" {
		return nil, nil
	}

	url := c.baseURL + "/v1/open-platform/finder/user-posts"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set(accessTokenHeader, accessToken)

	rsp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace: get user posts: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		c.log.Warn("User posts lookup failed", "status", rsp.StatusCode)
		return nil, nil
	}

	var payload userPostsPayload
	if err := json.NewDecoder(rsp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("marketplace: decode user posts: %w", err)
	}

	for _, post := range payload.Posts {
		if post.Token == postToken {
			return &domain.Post{Token: post.Token, Title: post.Title}, nil
		}
	}
	return nil, nil
}

type widgetPayload struct {
	AppSlug       string `json:"app_slug"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	StartingPrice int64  `json:"starting_price"`
}

func (c *HTTPClient) CreatePromotionalWidget(ctx context.Context, accessToken, postToken string, startingPrice int64) error {
	payload := widgetPayload{
		AppSlug:       c.appSlug,
		Title:         "Auction Available",
		Description:   fmt.Sprintf("This post has an ongoing auction starting at %d you can bid on", startingPrice),
		StartingPrice: startingPrice,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/open-platform/addons/post/%s", c.baseURL, postToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set(accessTokenHeader, accessToken)

	rsp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace: create widget on %s: %w", postToken, err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK && rsp.StatusCode != http.StatusCreated {
		return fmt.Errorf("marketplace: create widget on %s: status %d", postToken, rsp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) RemovePromotionalWidget(ctx context.Context, postToken string) error {
	url := fmt.Sprintf("%s/v1/open-platform/addons/post/%s", c.baseURL, postToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	rsp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("marketplace: remove widget on %s: %w", postToken, err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK && rsp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("marketplace: remove widget on %s: status %d", postToken, rsp.StatusCode)
	}
	return nil
}
