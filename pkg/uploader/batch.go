package uploader

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tankermike11/staycation-journal/pkg/compress"
)

// Stage is the state a file is in when a Progress value is emitted.
type Stage string

const (
	StageCompressing Stage = "compressing"
	StageUploading   Stage = "uploading"
	StageUploaded    Stage = "uploaded"
	StageFailed      Stage = "failed"
)

// Progress is one step of a batch. Done counts files that reached a terminal stage.
type Progress struct {
	Name  string
	Stage Stage
	Done  int
	Total int
	Err   error
}

// Terminal reports whether the file has finished, successfully or not.
func (p Progress) Terminal() bool {
	return p.Stage == StageUploaded || p.Stage == StageFailed
}

type dayUploader interface {
	UploadDayPhoto(ctx context.Context, dayID string, f compress.File) (*Result, error)
}

type fileCompressor interface {
	Compress(ctx context.Context, f compress.File) (compress.File, error)
}

// Batch uploads Paths to one day, strictly one file at a time.
type Batch struct {
	DayID      string
	Paths      []string
	Client     dayUploader
	Compressor fileCompressor
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
}

// Steps yields (file index, progress) pairs: compressing, uploading, then uploaded or failed for each path.
// A failed file never stops the batch. Stopping the range loop or cancelling ctx abandons remaining files.
func (b *Batch) Steps(ctx context.Context) iter.Seq2[int, Progress] {
	return func(yield func(int, Progress) bool) {
		total := len(b.Paths)
		done := 0
		for i, path := range b.Paths {
			if ctx.Err() != nil {
				return
			}
			name := filepath.Base(path)
			if !yield(i, Progress{Name: name, Stage: StageCompressing, Done: done, Total: total}) {
				return
			}

			f, err := b.prepare(ctx, path)
			if err == nil {
				if !yield(i, Progress{Name: f.Name, Stage: StageUploading, Done: done, Total: total}) {
					return
				}
				err = b.upload(ctx, f)
			}

			done++
			p := Progress{Name: name, Stage: StageUploaded, Done: done, Total: total}
			if err != nil {
				p.Stage = StageFailed
				p.Err = err
			}
			if !yield(i, p) {
				return
			}
		}
	}
}

func (b *Batch) prepare(ctx context.Context, path string) (compress.File, error) {
	read := b.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(path)
	if err != nil {
		return compress.File{}, fmt.Errorf("read %s: %w", path, err)
	}
	f := compress.File{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}
	if b.Compressor == nil {
		return f, nil
	}
	return b.Compressor.Compress(ctx, f)
}

func (b *Batch) upload(ctx context.Context, f compress.File) error {
	res, err := b.Client.UploadDayPhoto(ctx, b.DayID, f)
	if err != nil {
		return err
	}
	if res.Count == 0 {
		msg := "Upload failed."
		if len(res.Failed) > 0 && res.Failed[0].Message != "" {
			msg = res.Failed[0].Message
		}
		return &UploadError{Status: http.StatusOK, Message: msg}
	}
	return nil
}

// Tally accumulates terminal progress for the final report.
type Tally struct {
	Uploaded int
	Failed   int
	Errors   []error
}

// Observe records p if it is terminal.
func (t *Tally) Observe(p Progress) {
	switch p.Stage {
	case StageUploaded:
		t.Uploaded++
	case StageFailed:
		t.Failed++
		t.Errors = append(t.Errors, p.Err)
	}
}

// TooLarge reports whether any failure was a request-size rejection.
func (t *Tally) TooLarge() bool {
	for _, err := range t.Errors {
		var upErr *UploadError
		if errors.As(err, &upErr) && upErr.Status == http.StatusRequestEntityTooLarge {
			return true
		}
	}
	return false
}

// Summary renders the end-of-batch message.
func Summary(t Tally) string {
	if t.Failed == 0 {
		return fmt.Sprintf("Uploaded %d photo(s).", t.Uploaded)
	}
	return fmt.Sprintf("Uploaded %d photo(s). %d failed.", t.Uploaded, t.Failed)
}
