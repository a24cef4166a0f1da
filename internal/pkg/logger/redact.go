package logger

import "strings"

var secretKeys = []string{"token", "secret", "password", "authorization", "api_key"}

// RedactSecret masks a credential for safe logging, keeping the last four
// characters of long values: "sk_live_abcdef1234" -> "***1234".
func RedactSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return "***" + s[len(s)-4:]
}

func redactValue(key string, val any) any {
	key = strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(key, k) {
			if s, ok := val.(string); ok {
				return RedactSecret(s)
			}
			return "***"
		}
	}
	return val
}
