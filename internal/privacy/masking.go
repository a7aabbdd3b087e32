package privacy

import (
	"strings"
)

// MaskSecret masks a credential showing only the last 4 characters.
// Example: "SCT12345ABCDEF" -> "**********CDEF"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

// MaskCorpID masks a WeChat Work corp ID, keeping the "ww" prefix and
// the last 4 characters so distinct tenants stay tellable apart in logs.
// Example: "ww1234567890abcdef" -> "ww************cdef"
func MaskCorpID(corpID string) string {
	if corpID == "" {
		return ""
	}
	if strings.HasPrefix(corpID, "ww") && len(corpID) > 6 {
		return "ww" + strings.Repeat("*", len(corpID)-6) + corpID[len(corpID)-4:]
	}
	return MaskSecret(corpID)
}

// MaskToken masks an access token for debug logging. Tokens are long;
// only the first and last 4 characters are kept.
// Example: "abcdefghijklmnop" -> "abcd********mnop"
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
