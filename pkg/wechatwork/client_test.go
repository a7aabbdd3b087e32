package wechatwork

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "jtdxmon/internal/errors"
	"jtdxmon/internal/retry"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func noRetry() *retry.Backoff {
	return retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
		MaxAttempts:  1,
	})
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL: baseURL,
		CorpID:  "test-corp",
		AgentID: "1000002",
		Secret:  "test-secret",
		ToUser:  "@all",
	}, noRetry(), newTestLogger())
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{CorpID: "c", AgentID: "1", Secret: "s", ToUser: "@all"}, nil, nil)

	assert.Equal(t, defaultBaseURL, c.config.BaseURL)
	assert.Equal(t, defaultTimeout, c.config.Timeout)
	assert.Equal(t, defaultTokenRefresh, c.config.TokenRefresh)
	assert.NotNil(t, c.backoff)
	assert.NotNil(t, c.logger)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://example.com/"}, nil, newTestLogger())
	assert.Equal(t, "https://example.com", c.config.BaseURL)
}

func TestClient_FetchToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/gettoken", r.URL.Path)
		assert.Equal(t, "test-corp", r.URL.Query().Get("corpid"))
		assert.Equal(t, "test-secret", r.URL.Query().Get("corpsecret"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"errcode":      0,
			"errmsg":       "ok",
			"access_token": "TOKEN123",
			"expires_in":   7200,
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	require.NoError(t, c.fetchToken(context.Background()))

	token, ok := c.currentToken()
	assert.True(t, ok)
	assert.Equal(t, "TOKEN123", token)
}

func TestClient_FetchToken_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errcode": 40013,
			"errmsg":  "invalid corpid",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.fetchToken(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeWeChatWorkAPI, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "40013")

	_, ok := c.currentToken()
	assert.False(t, ok)
}

func TestClient_FetchToken_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.fetchToken(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestClient_Send(t *testing.T) {
	tokenCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cgi-bin/gettoken":
			tokenCalls++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errcode": 0, "access_token": "TOKEN123", "expires_in": 7200,
			})
		case "/cgi-bin/message/send":
			assert.Equal(t, "TOKEN123", r.URL.Query().Get("access_token"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var payload sendMessageRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "@all", payload.ToUser)
			assert.Equal(t, "text", payload.MsgType)
			assert.Equal(t, "1000002", payload.AgentID)
			assert.Equal(t, "hello shack", payload.Text.Content)

			json.NewEncoder(w).Encode(map[string]interface{}{"errcode": 0, "errmsg": "ok"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	require.NoError(t, c.fetchToken(context.Background()))
	require.NoError(t, c.Send(context.Background(), "hello shack"))
	assert.Equal(t, 1, tokenCalls)
}

func TestClient_Send_FailsFastWithoutToken(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	err := c.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoCredential, apperrors.GetCode(err))
	assert.Equal(t, int64(0), requests.Load(), "no network call should be made without a token")
}

func TestClient_Send_FailsFastWithExpiredToken(t *testing.T) {
	c := newTestClient("http://localhost:0")
	c.tokenMu.Lock()
	c.accessToken = "STALE"
	c.tokenExpires = time.Now().Add(-time.Minute)
	c.tokenMu.Unlock()

	err := c.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNoCredential, apperrors.GetCode(err))
}

func TestClient_Send_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cgi-bin/gettoken":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errcode": 0, "access_token": "TOKEN123", "expires_in": 7200,
			})
		default:
			json.NewEncoder(w).Encode(map[string]interface{}{"errcode": 45009, "errmsg": "api freq out of limit"})
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	require.NoError(t, c.fetchToken(context.Background()))

	err := c.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeWeChatWorkAPI, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "45009")
}

func TestClient_StartTokenRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errcode": 0, "access_token": "TOKEN123", "expires_in": 7200,
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	require.NoError(t, c.StartTokenRefresh(context.Background()))
	defer c.Stop()

	token, ok := c.currentToken()
	assert.True(t, ok)
	assert.Equal(t, "TOKEN123", token)

	err := c.StartTokenRefresh(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestClient_StartTokenRefresh_InitialFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	require.NoError(t, c.StartTokenRefresh(context.Background()))
	defer c.Stop()

	_, ok := c.currentToken()
	assert.False(t, ok)
}

func TestClient_StopIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"errcode": 0, "access_token": "T", "expires_in": 7200})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	require.NoError(t, c.StartTokenRefresh(context.Background()))
	c.Stop()
	c.Stop()
}
