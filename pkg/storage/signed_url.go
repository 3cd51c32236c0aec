package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenInvalid  = errors.New("invalid image token")
	ErrTokenExpired  = errors.New("image token expired")
	ErrTokenMismatch = errors.New("image token does not match request")
)

// SignedURLSigner creates and validates tokens that let <img> tags fetch private images.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a token bound to the image id and size selector.
func (s *SignedURLSigner) Generate(imageID, size string) (string, time.Time, error) {
	if imageID == "" || size == "" {
		return "", time.Time{}, fmt.Errorf("imageID and size required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(imageID, ts, size)
	return strings.Join([]string{imageID, ts, size, signature}, "."), expiresAt, nil
}

// Parse validates a token and returns the embedded image id and size.
func (s *SignedURLSigner) Parse(token string) (imageID, size string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	imageID, ts, size, signature := parts[0], parts[1], parts[2], parts[3]

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	expected := s.sign(imageID, ts, size)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, ErrTokenInvalid
	}
	expiresAt = time.Unix(expUnix, 0)
	if s.now().After(expiresAt) {
		return "", "", time.Time{}, ErrTokenExpired
	}
	return imageID, size, expiresAt, nil
}

// Verify checks the token grants access to exactly this image and size.
func (s *SignedURLSigner) Verify(token, imageID, size string) error {
	id, sz, _, err := s.Parse(token)
	if err != nil {
		return err
	}
	if id != imageID || sz != size {
		return ErrTokenMismatch
	}
	return nil
}

func (s *SignedURLSigner) sign(imageID, ts, size string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(imageID + "|" + ts + "|" + size))
	return hex.EncodeToString(mac.Sum(nil))
}
