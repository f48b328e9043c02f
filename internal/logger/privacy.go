package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

var hashSalt string

func init() {
	// In production, set LOG_HASH_SALT so chat hashes are not guessable.
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

// HashChatID creates a privacy-preserving hash of a chat ID so log lines can
// be correlated without exposing the raw Telegram chat ID.
func HashChatID(chatID int64) string {
	data := fmt.Sprintf("%d:%s", chatID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// RedactEmail keeps the first two characters of the local part and the
// domain, masking the rest.
func RedactEmail(email string) string {
	if email == "" {
		return "<empty>"
	}
	at := -1
	for i, r := range email {
		if r == '@' {
			at = i
			break
		}
	}
	if at <= 2 {
		return "***" + email[max(at, 0):]
	}
	return email[:2] + "***" + email[at:]
}
