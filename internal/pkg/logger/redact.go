package logger

// RedactSecret masks an API key or token for safe logging, keeping just
// enough of each end to correlate with the platform dashboard.
// "pk-live-4f9a81c2d7e3" → "pk-l***d7e3"
// Short values (≤8 chars) are fully masked.
func RedactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
