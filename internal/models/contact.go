package models

import "time"

// StatusMarker is the trailing decode status flag on a JTDX log line.
type StatusMarker string

const (
	StatusNone  StatusMarker = ""
	StatusAck   StatusMarker = "*"
	StatusRetry StatusMarker = "^"
)

// DecodeRecord is one parsed decode line from the JTDX ALL.TXT log.
type DecodeRecord struct {
	Timestamp       time.Time
	SNR             int
	TimeDelta       float64
	FrequencyOffset int
	Message         string
	Status          StatusMarker
}

// ContactEvent is the (caller, called) pair extracted from a decode
// message payload. An empty string means the station is absent; a CQ
// call has no called station.
type ContactEvent struct {
	Caller string
	Called string
}

// IsZero reports whether the event carries no station at all, i.e.
// the message was not a reportable contact.
func (e ContactEvent) IsZero() bool {
	return e.Caller == "" && e.Called == ""
}

// Directed reports whether the event is a directed call rather than a CQ.
func (e ContactEvent) Directed() bool {
	return e.Called != ""
}

// ContactRecord is a reported contact persisted to the history store.
type ContactRecord struct {
	ID              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Caller          string    `json:"caller"`
	Called          string    `json:"called,omitempty"`
	SNR             int       `json:"snr"`
	FrequencyOffset int       `json:"frequencyOffset"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"createdAt"`
}
