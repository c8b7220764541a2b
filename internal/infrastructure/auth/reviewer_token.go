package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const reviewerTokenBytes = 32

// ErrTokenMismatch is returned when a reviewer token does not match its hash
var ErrTokenMismatch = errors.New("reviewer token does not match")

// NewReviewerToken returns a random URL-safe access token and its bcrypt hash.
// Only the hash is stored; the token is shown to the inviter once.
func NewReviewerToken() (token, hash string, err error) {
	buf := make([]byte, reviewerTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reviewer token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)

	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", fmt.Errorf("hash reviewer token: %w", err)
	}
	return token, string(h), nil
}

// VerifyReviewerToken checks token against a stored hash
func VerifyReviewerToken(hash, token string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrTokenMismatch
		}
		return fmt.Errorf("verify reviewer token: %w", err)
	}
	return nil
}

// ErrMalformedReviewerToken is returned for access tokens that do not parse
var ErrMalformedReviewerToken = errors.New("malformed reviewer access token")

// ComposeReviewerAccessToken builds the token handed to the reviewer. It
// carries the tenant and reviewer ids so the secret can be checked against a
// single stored hash.
func ComposeReviewerAccessToken(tenantID, reviewerID uuid.UUID, secret string) string {
	return tenantID.String() + ":" + reviewerID.String() + ":" + secret
}

// ParseReviewerAccessToken splits a token built by ComposeReviewerAccessToken
func ParseReviewerAccessToken(token string) (tenantID, reviewerID uuid.UUID, secret string, err error) {
	parts := strings.SplitN(strings.TrimSpace(token), ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return uuid.Nil, uuid.Nil, "", ErrMalformedReviewerToken
	}
	if tenantID, err = uuid.Parse(parts[0]); err != nil {
		return uuid.Nil, uuid.Nil, "", ErrMalformedReviewerToken
	}
	if reviewerID, err = uuid.Parse(parts[1]); err != nil {
		return uuid.Nil, uuid.Nil, "", ErrMalformedReviewerToken
	}
	return tenantID, reviewerID, parts[2], nil
}
