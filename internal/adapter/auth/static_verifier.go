package auth

import (
	"errors"
	"strings"
)

var ErrUnknownToken = errors.New("unknown token")

// StaticVerifier resolves opaque bearer tokens from a fixed token→user map.
// It stands in for the external identity provider; the rest of the system
// only sees the port.TokenVerifier interface.
type StaticVerifier struct {
	tokens map[string]string
}

func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(token string) (string, error) {
	userID, ok := v.tokens[token]
	if !ok {
		return "", ErrUnknownToken
	}
	return userID, nil
}

// ParseTokenPairs parses "token:user,token:user" as supplied via AUTH_TOKENS.
func ParseTokenPairs(s string) map[string]string {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	return tokens
}
