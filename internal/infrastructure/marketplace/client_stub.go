package marketplace

import (
	"context"
	"errors"
	"sync"

	"marketplace-auction/internal/domain"
)

// StubClient is an in-process MarketplaceClient for development and tests.
// Every known post validates; ownership is driven by the OwnedBy map.
type StubClient struct {
	mu sync.RWMutex
	// Titles maps post token -> title. Unknown tokens fail validation.
	Titles map[string]string
	// OwnedBy maps access token -> post tokens that user owns.
	OwnedBy map[string][]string
	// FailWidgetRemoval makes RemovePromotionalWidget fail, to exercise
	// the no-partial-deletion path of auction removal.
	FailWidgetRemoval bool

	CreatedWidgets []string
	RemovedWidgets []string
}

func NewStubClient() *StubClient {
	return &StubClient{
		Titles:  make(map[string]string),
		OwnedBy: make(map[string][]string),
	}
}

// AddPost registers a post and marks it owned by the given access token.
func (c *StubClient) AddPost(token, title, accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Titles[token] = title
	if accessToken != "" {
		c.OwnedBy[accessToken] = append(c.OwnedBy[accessToken], token)
	}
}

func (c *StubClient) ValidatePost(ctx context.Context, postToken string) (*domain.Post, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	title, exists := c.Titles[postToken]
	if !exists {
		return nil, domain.ErrPostNotFound
	}
	return &domain.Post{Token: postToken, Title: title}, nil
}

func (c *StubClient) FindPostOwnedBy(ctx context.Context, postToken, accessToken string) (*domain.Post, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, token := range c.OwnedBy[accessToken] {
		if token == postToken {
			return &domain.Post{Token: token, Title: c.Titles[token]}, nil
		}
	}
	return nil, nil
}

func (c *StubClient) CreatePromotionalWidget(ctx context.Context, accessToken, postToken string, startingPrice int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CreatedWidgets = append(c.CreatedWidgets, postToken)
	return nil
}

func (c *StubClient) RemovePromotionalWidget(ctx context.Context, postToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWidgetRemoval {
		return errors.New("widget removal unavailable")
	}
	c.RemovedWidgets = append(c.RemovedWidgets, postToken)
	return nil
}
