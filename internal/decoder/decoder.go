package decoder

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"jtdxmon/internal/models"
)

// decodeLine matches one JTDX decode line: timestamp, SNR, time delta,
// audio frequency offset (0..3500 Hz), then "~" and the message payload.
var decodeLine = regexp.MustCompile(`^(\d{8}_\d{6})\s+(-?\d+)\s+(-?\d+(?:\.\d)?)\s+([0-9]|[1-9]\d{1,2}|1\d{3}|2\d{3}|3[0-4]\d{2}|3500)\s+~\s+(.+)$`)

const timestampLayout = "20060102_150405"

// ambiguousMarker flags payloads JTDX could not fully decode.
const ambiguousMarker = "<...>"

// Decode parses one raw log line into a DecodeRecord. A line that does
// not match the decode grammar yields (nil, false); most log noise is
// dropped here rather than treated as an error.
func Decode(line string) (*models.DecodeRecord, bool) {
	m := decodeLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}

	ts, err := time.Parse(timestampLayout, m[1])
	if err != nil {
		return nil, false
	}

	snr, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, false
	}

	dt, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil, false
	}

	freq, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, false
	}

	message, status := splitStatus(m[5])

	return &models.DecodeRecord{
		Timestamp:       ts,
		SNR:             snr,
		TimeDelta:       dt,
		FrequencyOffset: freq,
		Message:         message,
		Status:          status,
	}, true
}

// splitStatus strips a trailing decode status marker off the payload.
func splitStatus(payload string) (string, models.StatusMarker) {
	if payload == "" {
		return payload, models.StatusNone
	}

	switch marker := models.StatusMarker(payload[len(payload)-1:]); marker {
	case models.StatusAck, models.StatusRetry:
		return payload[:len(payload)-1], marker
	}
	return payload, models.StatusNone
}

// Extract parses a decode message payload into the transmitting (Caller)
// and addressed (Called) station identifiers.
//
// A CQ payload carries only the caller, optionally behind a directional
// qualifier ("CQ EU VK6KXW OF87"). A directed call is addressee first,
// sender second ("W1ABC JA1XYZ RR73"). Payloads containing the decoder's
// ambiguous marker, or with no recognizable shape, yield a zero event.
func Extract(message string) models.ContactEvent {
	message = strings.TrimSpace(message)
	if n := len(message); n > 0 && (message[n-1] == '*' || message[n-1] == '^') {
		// tolerate payloads whose status marker was not split off
		message = strings.TrimSpace(message[:n-1])
	}

	if strings.Contains(message, ambiguousMarker) {
		return models.ContactEvent{}
	}

	parts := strings.Fields(message)
	if len(parts) == 0 {
		return models.ContactEvent{}
	}

	if parts[0] == "CQ" {
		if len(parts) >= 3 && isDirectionToken(parts[1]) {
			return models.ContactEvent{Caller: parts[2]}
		}
		if len(parts) >= 2 {
			return models.ContactEvent{Caller: parts[1]}
		}
		return models.ContactEvent{}
	}

	if len(parts) >= 2 {
		return models.ContactEvent{Caller: parts[1], Called: parts[0]}
	}

	return models.ContactEvent{}
}

// isDirectionToken reports whether a token looks like a directional CQ
// qualifier: a short all-letter region code such as EU, DX or JA.
func isDirectionToken(tok string) bool {
	if len(tok) == 0 || len(tok) > 4 {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
