package gmailclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/cabinwatch/cabinwatch/internal/config"
	"github.com/cabinwatch/cabinwatch/pkg/utils"
)

// Client sends email as the authorized Gmail account
type Client struct {
	service      *gmail.Service
	from         string
	interval     time.Duration
	lastSendTime time.Time
	sendMutex    sync.Mutex
}

// NewClient creates a Gmail client from a token obtained by the auth command
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, token *oauth2.Token, from string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)
	httpClient.Timeout = sendTimeout

	return NewClientWithOptions(ctx, from, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a Gmail client from raw API options, e.g. a test endpoint
func NewClientWithOptions(ctx context.Context, from string, opts ...option.ClientOption) (*Client, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Client{
		service:  service,
		from:     from,
		interval: emailInterval,
	}, nil
}
