// Package uploader sends photos to the journal API one request at a time.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/tankermike11/staycation-journal/pkg/compress"
)

// TooLargeMessage is reported when the server rejects a photo for exceeding the request size limit.
const TooLargeMessage = "A photo is still too large for upload. Try a different photo, or take a screenshot and upload the screenshot."

// UploadError describes a non-2xx response from the upload endpoint.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (%d): %s", e.Status, e.Message)
}

// Result mirrors the upload endpoint payload.
type Result struct {
	Count  int            `json:"count"`
	Failed []FailedUpload `json:"failed,omitempty"`
}

// FailedUpload names a file the server could not ingest.
type FailedUpload struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type envelope struct {
	Data  *Result `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the upload endpoint with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for baseURL (including the API prefix, e.g. https://host/api/v1).
// Transfers are neither retried nor timed out; callers wanting a deadline pass their own httpClient or a context.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// UploadDayPhoto posts a single file to the day.
func (c *Client) UploadDayPhoto(ctx context.Context, dayID string, f compress.File) (*Result, error) {
	body, contentType, err := buildForm(dayID, f)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send upload request: %w", err)
	}
	defer resp.Body.Close()

	return readResponse(resp)
}

func buildForm(dayID string, f compress.File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("dayId", dayID); err != nil {
		return nil, "", fmt.Errorf("write dayId field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func readResponse(resp *http.Response) (*Result, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return nil, &UploadError{Status: resp.StatusCode, Message: TooLargeMessage}
	}

	var env envelope
	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")
	if isJSON {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, &UploadError{Status: resp.StatusCode, Message: "invalid response body"}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		if msg == "" {
			msg = "Upload failed."
		}
		return nil, &UploadError{Status: resp.StatusCode, Message: msg}
	}

	if env.Data == nil {
		return &Result{}, nil
	}
	return env.Data, nil
}
