package constants

// Default monitoring configuration values
const (
	DefaultLogFileSuffix     = "_ALL.TXT"
	DefaultTailPollSec       = 1
	DefaultSendIntervalSec   = 120
	DefaultMonitorName       = "JTDX monitor"
	DefaultHistoryRecent     = 50
	DefaultMaxFrequencyHertz = 3500
)

// Default notifier configuration values
const (
	DefaultWeChatWorkBaseURL = "https://qyapi.weixin.qq.com"
	DefaultServerChanBaseURL = "https://sctapi.ftqq.com"
	DefaultTokenLifetimeSec  = 7200
	DefaultTokenRefreshSec   = 3600
	DefaultHTTPTimeoutSec    = 30
	DefaultRetryBackoffMs    = 1000
	DefaultMaxBackoffMs      = 60000
	DefaultMaxAttempts       = 5
)

// Default status server values
const (
	DefaultServerPort            = 8083
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 10
)
