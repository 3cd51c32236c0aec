package uploader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tankermike11/staycation-journal/pkg/compress"
)

func TestUploadDayPhotoSendsMultipartForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/upload", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "day-1", r.FormValue("dayId"))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		body, _ := io.ReadAll(file)
		assert.Equal(t, "photo.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte("jpeg-bytes"), body)

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"count":1}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api/v1/", "secret", srv.Client())
	res, err := client.UploadDayPhoto(context.Background(), "day-1", compress.File{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestNewClientDefaultsWithoutTimeout(t *testing.T) {
	client := NewClient("http://localhost/api/v1/", "secret", nil)
	require.NotNil(t, client.http)
	assert.Zero(t, client.http.Timeout)
	assert.Equal(t, "http://localhost/api/v1", client.baseURL)
}

func TestUploadDayPhotoErrors(t *testing.T) {
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantMessage string
	}{
		{"too large", http.StatusRequestEntityTooLarge, "text/plain", "Request Entity Too Large", TooLargeMessage},
		{"json error", http.StatusUnprocessableEntity, "application/json", `{"error":{"code":"ENCODING_ERROR","message":"unsupported or corrupt image"}}`, "unsupported or corrupt image"},
		{"text error", http.StatusBadGateway, "text/plain", "bad gateway", "bad gateway"},
		{"empty body", http.StatusInternalServerError, "text/plain", "", "Upload failed."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", srv.Client()).UploadDayPhoto(context.Background(), "d", compress.File{Name: "a.jpg", Data: []byte{1}})
			var upErr *UploadError
			require.ErrorAs(t, err, &upErr)
			assert.Equal(t, tc.status, upErr.Status)
			assert.Equal(t, tc.wantMessage, upErr.Message)
		})
	}
}

type stubClient struct {
	calls   []string
	results map[string]error
}

func (s *stubClient) UploadDayPhoto(_ context.Context, dayID string, f compress.File) (*Result, error) {
	s.calls = append(s.calls, dayID+"/"+f.Name)
	if err := s.results[f.Name]; err != nil {
		return nil, err
	}
	return &Result{Count: 1}, nil
}

type renameCompressor struct{}

func (renameCompressor) Compress(_ context.Context, f compress.File) (compress.File, error) {
	f.Name = f.Name + ".jpg"
	return f, nil
}

func fakeFS(files map[string][]byte) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		data, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return data, nil
	}
}

func TestBatchStepsSequentialWithProgress(t *testing.T) {
	client := &stubClient{results: map[string]error{
		"b.heic.jpg": &UploadError{Status: http.StatusRequestEntityTooLarge, Message: TooLargeMessage},
	}}
	batch := &Batch{
		DayID:      "day-9",
		Paths:      []string{"/photos/a.png", "/photos/b.heic", "/photos/missing.jpg", "/photos/c.jpg"},
		Client:     client,
		Compressor: renameCompressor{},
		ReadFile: fakeFS(map[string][]byte{
			"/photos/a.png":  []byte("a"),
			"/photos/b.heic": []byte("b"),
			"/photos/c.jpg":  []byte("c"),
		}),
	}

	var tally Tally
	var stages []Stage
	var indices []int
	for i, p := range batch.Steps(context.Background()) {
		indices = append(indices, i)
		stages = append(stages, p.Stage)
		assert.Equal(t, 4, p.Total)
		tally.Observe(p)
	}

	assert.Equal(t, []Stage{
		StageCompressing, StageUploading, StageUploaded,
		StageCompressing, StageUploading, StageFailed,
		StageCompressing, StageFailed,
		StageCompressing, StageUploading, StageUploaded,
	}, stages)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 2, 2, 3, 3, 3}, indices)
	assert.Equal(t, []string{"day-9/a.png.jpg", "day-9/b.heic.jpg", "day-9/c.jpg.jpg"}, client.calls)

	assert.Equal(t, 2, tally.Uploaded)
	assert.Equal(t, 2, tally.Failed)
	assert.True(t, tally.TooLarge())
	assert.True(t, errors.Is(tally.Errors[1], os.ErrNotExist))
	assert.Equal(t, "Uploaded 2 photo(s). 2 failed.", Summary(tally))
}

func TestBatchStepsReportsDoneCount(t *testing.T) {
	batch := &Batch{
		DayID:    "d",
		Paths:    []string{"x.jpg", "y.jpg"},
		Client:   &stubClient{},
		ReadFile: fakeFS(map[string][]byte{"x.jpg": {1}, "y.jpg": {2}}),
	}

	var terminal []int
	for _, p := range batch.Steps(context.Background()) {
		if p.Terminal() {
			terminal = append(terminal, p.Done)
		}
	}
	assert.Equal(t, []int{1, 2}, terminal)
}

func TestBatchStepsStopsWhenConsumerBreaks(t *testing.T) {
	client := &stubClient{}
	batch := &Batch{
		DayID:    "d",
		Paths:    []string{"x.jpg", "y.jpg"},
		Client:   client,
		ReadFile: fakeFS(map[string][]byte{"x.jpg": {1}, "y.jpg": {2}}),
	}

	for _, p := range batch.Steps(context.Background()) {
		if p.Terminal() {
			break
		}
	}
	assert.Len(t, client.calls, 1)
}

func TestBatchStepsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &stubClient{}
	batch := &Batch{
		DayID:    "d",
		Paths:    []string{"x.jpg", "y.jpg"},
		Client:   client,
		ReadFile: fakeFS(map[string][]byte{"x.jpg": {1}, "y.jpg": {2}}),
	}

	steps := 0
	for _, p := range batch.Steps(ctx) {
		steps++
		if p.Terminal() {
			cancel()
		}
	}
	assert.Equal(t, 3, steps)
	assert.Len(t, client.calls, 1)
}

func TestSummaryWithoutFailures(t *testing.T) {
	assert.Equal(t, "Uploaded 3 photo(s).", Summary(Tally{Uploaded: 3}))
}
