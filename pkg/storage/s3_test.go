package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankermike11/staycation-journal/pkg/config"
)

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

const streamingPayload = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"

// decodeChunked strips aws-chunked framing: "<hex size>;chunk-signature=<sig>\r\n<data>\r\n" ending with a zero-size chunk.
func decodeChunked(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var out []byte
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, err
		}
		sizeHex, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		size, err := strconv.ParseInt(sizeHex, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("chunk header %q: %w", line, err)
		}
		if size == 0 {
			return out, nil
		}
		chunk := make([]byte, size)
		if _, err := io.ReadFull(br, chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		if _, err := br.Discard(2); err != nil {
			return nil, err
		}
	}
}

func readPayload(r *http.Request) ([]byte, error) {
	if r.Header.Get("X-Amz-Content-Sha256") == streamingPayload || strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
		return decodeChunked(r.Body)
	}
	return io.ReadAll(r.Body)
}

// fakeBucket answers the handful of path-style S3 calls the adapter makes.
type fakeBucket struct {
	mu      sync.Mutex
	name    string
	objects map[string][]byte
	types   map[string]string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != b.name {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if key == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodPut:
		data, err := readPayload(r)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.objects[key] = data
		b.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := b.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				_, _ = w.Write([]byte(noSuchKey))
			}
			return
		}
		w.Header().Set("Content-Type", b.types[key])
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC).Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(data)
		}
	case http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeS3(t *testing.T) (*fakeBucket, config.S3Config) {
	t.Helper()
	bucket := &fakeBucket{name: "journal", objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)
	return bucket, config.S3Config{
		Endpoint:        strings.TrimPrefix(srv.URL, "http://"),
		Region:          "us-east-1",
		Bucket:          "journal",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}
}

func TestS3StorageRoundTrip(t *testing.T) {
	bucket, cfg := newFakeS3(t)
	ctx := context.Background()

	store, err := NewS3Storage(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "thumb/abc.jpg", []byte("jpeg"), "image/jpeg"))
	assert.Equal(t, []byte("jpeg"), bucket.objects["thumb/abc.jpg"])
	assert.Equal(t, "image/jpeg", bucket.types["thumb/abc.jpg"])

	obj, err := store.Get(ctx, "thumb/abc.jpg")
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	obj.Body.Close()
	assert.Equal(t, []byte("jpeg"), body)
	assert.Equal(t, int64(4), obj.Size)

	require.NoError(t, store.Delete(ctx, "thumb/abc.jpg"))
	_, err = store.Get(ctx, "thumb/abc.jpg")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestDecodeChunked(t *testing.T) {
	body := "4;chunk-signature=abc\r\njpeg\r\n2;chunk-signature=def\r\n!!\r\n0;chunk-signature=fff\r\n\r\n"
	data, err := decodeChunked(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg!!"), data)
}

func TestNewS3StorageMissingBucket(t *testing.T) {
	_, cfg := newFakeS3(t)
	cfg.Bucket = "other"

	_, err := NewS3Storage(context.Background(), cfg)
	require.Error(t, err)
}
