package wechatwork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "jtdxmon/internal/errors"
	"jtdxmon/internal/privacy"
	"jtdxmon/internal/retry"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL      = "https://qyapi.weixin.qq.com"
	defaultTimeout      = 30 * time.Second
	defaultTokenRefresh = time.Hour

	// The API grants tokens for two hours; used when the response does
	// not carry an expires_in of its own.
	defaultTokenLifetime = 7200 * time.Second
)

// Client pushes text messages through the WeChat Work application
// message API. It holds a bearer access token with a fixed validity
// window, refreshed by a background loop on its own cadence; Send fails
// fast without a network call when no unexpired token is held, leaving
// the retry to the caller's next flush cycle.
type Client struct {
	config  ClientConfig
	client  *http.Client
	logger  *logrus.Logger
	backoff *retry.Backoff

	tokenMu      sync.RWMutex
	accessToken  string
	tokenExpires time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewClient(config ClientConfig, backoff *retry.Backoff, logger *logrus.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.TokenRefresh <= 0 {
		config.TokenRefresh = defaultTokenRefresh
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	if backoff == nil {
		backoff = retry.NewBackoff(retry.DefaultBackoffConfig())
	}

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		logger:  logger,
		backoff: backoff,
	}
}

// StartTokenRefresh fetches an initial access token (retried with
// backoff) and starts the background refresh loop. An initial fetch
// failure is logged, not fatal; Send fails fast until a later refresh
// succeeds.
func (c *Client) StartTokenRefresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("token refresh is already running")
	}

	refreshCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.running = true

	if err := c.refreshWithRetry(refreshCtx); err != nil {
		c.logger.WithError(err).Warn("Initial access token fetch failed; sends will fail fast until refresh succeeds")
	}

	c.wg.Add(1)
	go c.refreshLoop(refreshCtx)

	c.logger.WithField("interval", c.config.TokenRefresh).Info("WeChat Work token refresh started")
	return nil
}

// Stop gracefully stops the refresh loop.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.cancel()
	c.wg.Wait()
	c.running = false
	c.logger.Info("WeChat Work token refresh stopped")
}

func (c *Client) refreshLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TokenRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.refreshWithRetry(ctx); err != nil {
				apperrors.LogWarn(c.logger, err, "Access token refresh failed; will retry on the next cycle")
			}
		}
	}
}

func (c *Client) refreshWithRetry(ctx context.Context) error {
	return c.backoff.Retry(ctx, func() error {
		return c.fetchToken(ctx)
	})
}

// fetchToken performs one gettoken call and installs the result.
func (c *Client) fetchToken(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/cgi-bin/gettoken?corpid=%s&corpsecret=%s",
		c.config.BaseURL, url.QueryEscape(c.config.CorpID), url.QueryEscape(c.config.Secret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.ErrCodeWeChatWorkAPI, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewAPIError("wechatwork", "/cgi-bin/gettoken", resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.ErrCode != 0 {
		return apperrors.NewAPIError("wechatwork", "/cgi-bin/gettoken", resp.StatusCode,
			fmt.Errorf("errcode %d: %s", token.ErrCode, token.ErrMsg))
	}

	lifetime := defaultTokenLifetime
	if token.ExpiresIn > 0 {
		lifetime = time.Duration(token.ExpiresIn) * time.Second
	}

	c.tokenMu.Lock()
	c.accessToken = token.AccessToken
	c.tokenExpires = time.Now().Add(lifetime)
	c.tokenMu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"lifetime": lifetime,
		"token":    privacy.MaskToken(token.AccessToken),
	}).Debug("Access token refreshed")
	return nil
}

// currentToken returns the held token and whether it is still valid.
func (c *Client) currentToken() (string, bool) {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.accessToken, c.accessToken != "" && time.Now().Before(c.tokenExpires)
}

// Send delivers one text message to the configured recipient. It fails
// fast when no valid access token is held.
func (c *Client) Send(ctx context.Context, content string) error {
	token, ok := c.currentToken()
	if !ok {
		return apperrors.New(apperrors.ErrCodeNoCredential, "no valid access token held")
	}

	payload := sendMessageRequest{
		ToUser:  c.config.ToUser,
		MsgType: "text",
		AgentID: c.config.AgentID,
		Text:    textPayload{Content: content},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/cgi-bin/message/send?access_token=%s", c.config.BaseURL, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.ErrCodeWeChatWorkAPI, "send request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewAPIError("wechatwork", "/cgi-bin/message/send", resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode send response: %w", err)
	}
	if result.ErrCode != 0 {
		return apperrors.NewAPIError("wechatwork", "/cgi-bin/message/send", resp.StatusCode,
			fmt.Errorf("errcode %d: %s", result.ErrCode, result.ErrMsg))
	}

	return nil
}
