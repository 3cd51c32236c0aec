package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("img-1", "thumb")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	imageID, size, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "img-1", imageID)
	require.Equal(t, "thumb", size)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
	require.NoError(t, signer.Verify(token, "img-1", "thumb"))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	token, _, err := signer.Generate("img-1", "web")
	require.NoError(t, err)

	signer.now = time.Now
	_, _, _, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("img-1", "thumb")
	require.NoError(t, err)

	require.ErrorIs(t, signer.Verify(token, "img-1", "orig"), ErrTokenMismatch)
	require.ErrorIs(t, signer.Verify(token, "img-2", "thumb"), ErrTokenMismatch)

	other := NewSignedURLSigner("another", time.Hour)
	_, _, _, err = other.Parse(token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, _, _, err = signer.Parse("garbage")
	require.ErrorIs(t, err, ErrTokenInvalid)
}
