package serverchan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "jtdxmon/internal/errors"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://sctapi.ftqq.com"
	defaultTimeout = 30 * time.Second
)

// ClientConfig configures the ServerChan client
type ClientConfig struct {
	BaseURL string
	SendKey string
	Tags    string
	Timeout time.Duration
}

type sendResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client pushes messages through the ServerChan webhook API. It is
// stateless; each send splits the content into a first-line title and a
// remaining-lines body and performs one form POST.
type Client struct {
	config ClientConfig
	client *http.Client
	logger *logrus.Logger
}

func NewClient(config ClientConfig, logger *logrus.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Send delivers one message. The remote endpoint reports acceptance with
// code 0 in its JSON response; anything else is a failed delivery.
func (c *Client) Send(ctx context.Context, content string) error {
	title, desp, _ := strings.Cut(content, "\n")

	form := url.Values{}
	form.Set("title", title)
	form.Set("desp", desp)
	if c.config.Tags != "" {
		form.Set("tags", c.config.Tags)
	}

	endpoint := fmt.Sprintf("%s/%s.send", c.config.BaseURL, url.PathEscape(c.config.SendKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.WrapRetryable(err, apperrors.ErrCodeServerChanAPI, "send request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.NewAPIError("serverchan", endpoint, resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode send response: %w", err)
	}
	if result.Code != 0 {
		return apperrors.NewAPIError("serverchan", endpoint, resp.StatusCode,
			fmt.Errorf("code %d: %s", result.Code, result.Message))
	}

	c.logger.WithField("title", title).Debug("ServerChan message accepted")
	return nil
}
