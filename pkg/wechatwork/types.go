package wechatwork

import "time"

// ClientConfig configures the WeChat Work client
type ClientConfig struct {
	BaseURL      string
	CorpID       string
	AgentID      string
	Secret       string
	ToUser       string
	Timeout      time.Duration
	TokenRefresh time.Duration
}

type tokenResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type sendMessageRequest struct {
	ToUser  string      `json:"touser"`
	MsgType string      `json:"msgtype"`
	AgentID string      `json:"agentid"`
	Text    textPayload `json:"text"`
}

type textPayload struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}
