package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	config "github.com/maheshrc27/postdeck/configs"
	"github.com/maheshrc27/postdeck/internal/transfer"
)

// Publisher delivers post content to a single platform through the
// external cross-posting API. One call per platform per publish attempt.
type Publisher interface {
	Publish(ctx context.Context, platform, content string, mediaURLs []string) error
}

type publisherService struct {
	client *resty.Client
}

func NewPublisherService(cfg config.Config) Publisher {
	client := resty.New().
		SetBaseURL(cfg.Publisher.BaseURL).
		SetTimeout(2 * time.Minute).
		SetHeader("Authorization", "Bearer "+cfg.Publisher.APIKey)

	return &publisherService{client: client}
}

func (s *publisherService) Publish(ctx context.Context, platform, content string, mediaURLs []string) error {
	var result transfer.PublishResponse

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&transfer.PublishRequest{
			Platform:  platform,
			Content:   content,
			MediaURLs: mediaURLs,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/posts")
	if err != nil {
		return fmt.Errorf("posting to %s: %w", platform, err)
	}

	if resp.IsError() {
		// Surface the provider's message verbatim; it ends up on the post.
		if result.Error != nil && result.Error.Message != "" {
			return errors.New(result.Error.Message)
		}
		return fmt.Errorf("posting to %s: unexpected status %s", platform, resp.Status())
	}

	return nil
}
