package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	candidateEmailDomain    = "talentflow.temp"
	candidatePasswordLength = 12
	passwordAlphabet        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// candidateLogin derives the one-shot login for a session. The interview id
// suffix keeps a second assignment to the same handle from shadowing the first.
func candidateLogin(username, interviewID string) string {
	handle := strings.ToLower(strings.TrimSpace(username))
	if at := strings.Index(handle, "@"); at > 0 {
		handle = handle[:at]
	}
	suffix := strings.ReplaceAll(interviewID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return handle + "_" + suffix
}

func candidateEmail(login string) string {
	return fmt.Sprintf("%s@%s", login, candidateEmailDomain)
}

func generatePassword(length int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		builder.WriteByte(passwordAlphabet[n.Int64()])
	}
	return builder.String(), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// describeValidity renders a validity window the way it is shown to recruiters.
func describeValidity(ttl time.Duration) string {
	if ttl%time.Hour != 0 {
		return ttl.String()
	}
	hours := int(ttl / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
