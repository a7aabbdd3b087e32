package config

import (
	"encoding/json"
	"fmt"
	"os"

	"jtdxmon/internal/constants"
	"jtdxmon/internal/models"
	"jtdxmon/internal/security"
)

var (
	ErrMissingLogDir        = models.ConfigError{Message: "missing log directory"}
	ErrMissingBackend       = models.ConfigError{Message: "missing notifier backend selection"}
	ErrMissingSendKey       = models.ConfigError{Message: "missing ServerChan send key"}
	ErrMissingWeChatCorpID  = models.ConfigError{Message: "missing WeChat Work corp ID"}
	ErrMissingWeChatAgentID = models.ConfigError{Message: "missing WeChat Work agent ID"}
	ErrMissingWeChatSecret  = models.ConfigError{Message: "missing WeChat Work secret"}
	ErrMissingWeChatToUser  = models.ConfigError{Message: "missing WeChat Work recipient"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Tailer.LogDir == "" {
		return ErrMissingLogDir
	}

	info, err := os.Stat(c.Tailer.LogDir)
	if err != nil {
		return models.ConfigError{Message: fmt.Sprintf("log directory %q is not accessible: %v", c.Tailer.LogDir, err)}
	}
	if !info.IsDir() {
		return models.ConfigError{Message: fmt.Sprintf("log path %q is not a directory", c.Tailer.LogDir)}
	}

	switch c.Notifier.Backend {
	case "serverchan":
		if c.Notifier.ServerChan.SendKey == "" {
			return ErrMissingSendKey
		}
	case "wechatwork":
		if c.Notifier.WeChatWork.CorpID == "" {
			return ErrMissingWeChatCorpID
		}
		if c.Notifier.WeChatWork.AgentID == "" {
			return ErrMissingWeChatAgentID
		}
		if c.Notifier.WeChatWork.Secret == "" {
			return ErrMissingWeChatSecret
		}
		if c.Notifier.WeChatWork.ToUser == "" {
			return ErrMissingWeChatToUser
		}
	case "":
		return ErrMissingBackend
	default:
		return models.ConfigError{Message: fmt.Sprintf("unknown notifier backend %q", c.Notifier.Backend)}
	}

	switch c.Tailer.Mode {
	case "", "poll", "watch":
	default:
		return models.ConfigError{Message: fmt.Sprintf("unknown tailer mode %q (expected poll or watch)", c.Tailer.Mode)}
	}

	applyDefaults(c)
	return nil
}

func applyDefaults(c *models.Config) {
	if c.Monitor.Name == "" {
		c.Monitor.Name = constants.DefaultMonitorName
	}
	if c.Tailer.FileSuffix == "" {
		c.Tailer.FileSuffix = constants.DefaultLogFileSuffix
	}
	if c.Tailer.Mode == "" {
		c.Tailer.Mode = "poll"
	}
	if c.Tailer.PollIntervalSec <= 0 {
		c.Tailer.PollIntervalSec = constants.DefaultTailPollSec
	}
	if c.Queue.SendIntervalSec <= 0 {
		c.Queue.SendIntervalSec = constants.DefaultSendIntervalSec
	}
	if c.Notifier.HTTPTimeoutSec <= 0 {
		c.Notifier.HTTPTimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if c.Notifier.WeChatWork.BaseURL == "" {
		c.Notifier.WeChatWork.BaseURL = constants.DefaultWeChatWorkBaseURL
	}
	if c.Notifier.WeChatWork.TokenRefreshSec <= 0 {
		c.Notifier.WeChatWork.TokenRefreshSec = constants.DefaultTokenRefreshSec
	}
	if c.Notifier.ServerChan.BaseURL == "" {
		c.Notifier.ServerChan.BaseURL = constants.DefaultServerChanBaseURL
	}
	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}
}

func applyEnvironmentOverrides(c *models.Config) {
	if dir := os.Getenv("JTDXMON_LOG_DIR"); dir != "" {
		c.Tailer.LogDir = dir
	}

	// SECURITY: credentials should be set via environment variables
	if secret := os.Getenv("JTDXMON_WECHAT_SECRET"); secret != "" {
		c.Notifier.WeChatWork.Secret = secret
	}
	if key := os.Getenv("JTDXMON_SERVERCHAN_KEY"); key != "" {
		c.Notifier.ServerChan.SendKey = key
	}

	if path := os.Getenv("JTDXMON_DB_PATH"); path != "" {
		c.History.Path = path
	}
}
