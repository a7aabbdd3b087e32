package models

// Config holds the application configuration
type Config struct {
	Monitor  MonitorConfig  `json:"monitor"`
	Tailer   TailerConfig   `json:"tailer"`
	Queue    QueueConfig    `json:"queue"`
	Notifier NotifierConfig `json:"notifier"`
	History  HistoryConfig  `json:"history"`
	Server   ServerConfig   `json:"server"`
	Tracing  TracingConfig  `json:"tracing"`
	Retry    RetryConfig    `json:"retry"`
	LogLevel string         `json:"log_level"`
}

// MonitorConfig holds the monitor identity and filtering rules
type MonitorConfig struct {
	Name        string   `json:"name"`
	IgnoreCalls []string `json:"ignoreCalls"`
}

// TailerConfig holds log tailing related configurations
type TailerConfig struct {
	LogDir          string `json:"log_dir"`
	FileSuffix      string `json:"file_suffix"`
	Mode            string `json:"mode"` // "poll" or "watch"
	PollIntervalSec int    `json:"pollIntervalSec"`
}

// QueueConfig holds notification queue related configurations
type QueueConfig struct {
	SendIntervalSec int `json:"sendIntervalSec"`
}

// NotifierConfig selects and configures the notification backend
type NotifierConfig struct {
	Backend        string           `json:"backend"` // "wechatwork" or "serverchan"
	HTTPTimeoutSec int              `json:"httpTimeoutSec"`
	WeChatWork     WeChatWorkConfig `json:"wechatwork"`
	ServerChan     ServerChanConfig `json:"serverchan"`
}

// WeChatWorkConfig holds WeChat Work (enterprise messaging) credentials
type WeChatWorkConfig struct {
	BaseURL         string `json:"api_base_url"`
	CorpID          string `json:"corp_id"`
	AgentID         string `json:"agent_id"`
	Secret          string `json:"secret"`
	ToUser          string `json:"to_user"`
	TokenRefreshSec int    `json:"tokenRefreshSec"`
}

// ServerChanConfig holds ServerChan (webhook push) settings
type ServerChanConfig struct {
	BaseURL string `json:"api_base_url"`
	SendKey string `json:"send_key"`
	Tags    string `json:"tags"`
}

// HistoryConfig holds the optional contact history store configuration
type HistoryConfig struct {
	Path string `json:"path"`
}

// ServerConfig holds the status HTTP server configuration
type ServerConfig struct {
	Enabled         bool `json:"enabled"`
	Port            int  `json:"port"`
	ReadTimeoutSec  int  `json:"readTimeoutSec"`
	WriteTimeoutSec int  `json:"writeTimeoutSec"`
	IdleTimeoutSec  int  `json:"idleTimeoutSec"`
}

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled      bool    `json:"enabled"`
	UseStdout    bool    `json:"use_stdout"`
	OTLPEndpoint string  `json:"otlp_endpoint"`
	SampleRate   float64 `json:"sample_rate"`
	Environment  string  `json:"environment"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
