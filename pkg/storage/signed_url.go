package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidToken reports a malformed or forged download token.
	ErrInvalidToken = errors.New("invalid download token")
	// ErrExpiredToken reports a genuine token past its expiry.
	ErrExpiredToken = errors.New("download token expired")
)

// Link is the content of a download token.
type Link struct {
	ExportID  string
	Path      string
	ExpiresAt time.Time
}

type linkClaims struct {
	ID   string `json:"id"`
	Path string `json:"p"`
	Exp  int64  `json:"exp"`
}

// SignedURLSigner issues and verifies download tokens of the form
// base64url(claims) "." base64url(HMAC-SHA256(claims)).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long generated tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a token for the stored export at relPath.
func (s *SignedURLSigner) Generate(exportID, relPath string) (string, time.Time, error) {
	if exportID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("export id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload, err := json.Marshal(linkClaims{ID: exportID, Path: relPath, Exp: expiresAt.Unix()})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode token claims: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.sign(encoded), expiresAt, nil
}

// Parse verifies token and returns its link. When allowExpired is true the
// expiry check is skipped.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (Link, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return Link{}, ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.sign(encoded)), []byte(signature)) {
		return Link{}, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var claims linkClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.ID == "" || claims.Path == "" {
		return Link{}, ErrInvalidToken
	}
	link := Link{ExportID: claims.ID, Path: claims.Path, ExpiresAt: time.Unix(claims.Exp, 0)}
	if !allowExpired && s.now().After(link.ExpiresAt) {
		return Link{}, ErrExpiredToken
	}
	return link, nil
}

func (s *SignedURLSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
