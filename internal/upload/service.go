// Package upload simulates course material uploads. Only metadata is kept;
// file contents are read and discarded.
package upload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/capitalize-ai/coursechat/internal/model"
)

// ErrNoFiles is returned when an upload carries no files.
var ErrNoFiles = errors.New("no files to upload")

const sniffLen = 261

// File is one file of an upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// Meta is the teaching-material metadata attached to every file of an upload.
type Meta struct {
	Required bool
	Visible  bool
}

// ProgressFunc receives overall upload progress in percent.
type ProgressFunc func(percent float64)

// Service records uploaded materials per course.
type Service struct {
	mu    sync.RWMutex
	files map[string][]model.UploadedFile
	step  time.Duration
	now   func() time.Time
}

// NewService creates an upload service that pauses step between progress ticks.
func NewService(step time.Duration) *Service {
	return &Service{
		files: make(map[string][]model.UploadedFile),
		step:  step,
		now:   time.Now,
	}
}

// Upload reads every file, reports progress in 10% ticks per file and records
// the metadata under courseID.
func (s *Service) Upload(ctx context.Context, courseID string, files []File, meta Meta, onProgress ProgressFunc) ([]model.UploadedFile, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	uploaded := make([]model.UploadedFile, 0, len(files))
	for i, f := range files {
		size, mime, err := inspect(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}

		for progress := 0; progress <= 100; progress += 10 {
			if err := sleep(ctx, s.step); err != nil {
				return nil, err
			}
			if onProgress != nil {
				onProgress(float64(progress+i*100) / float64(len(files)))
			}
		}

		uploaded = append(uploaded, model.UploadedFile{
			ID:         "file-" + uuid.Must(uuid.NewV7()).String(),
			Name:       f.Name,
			Size:       size,
			Type:       mime,
			UploadedAt: s.now(),
			CourseID:   courseID,
			Required:   meta.Required,
			Visible:    meta.Visible,
		})
	}

	s.mu.Lock()
	s.files[courseID] = append(s.files[courseID], uploaded...)
	s.mu.Unlock()

	return uploaded, nil
}

// List returns the sample materials of a course followed by its uploads.
func (s *Service) List(courseID string) []model.UploadedFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := SampleFiles(courseID)
	return append(out, s.files[courseID]...)
}

// SampleFiles returns the materials every course starts with.
func SampleFiles(courseID string) []model.UploadedFile {
	return []model.UploadedFile{
		{
			ID:         "file-1",
			Name:       "Lecture_Notes_Week1.pdf",
			Size:       2048576,
			Type:       "application/pdf",
			UploadedAt: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
			CourseID:   courseID,
			Visible:    true,
		},
		{
			ID:         "file-2",
			Name:       "Assignment_Guidelines.docx",
			Size:       524288,
			Type:       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			UploadedAt: time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
			CourseID:   courseID,
			Visible:    true,
		},
	}
}

// inspect counts the bytes of f and sniffs its MIME type from the header,
// falling back to the declared content type.
func inspect(f File) (int64, string, error) {
	br := bufio.NewReaderSize(f.Body, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, "", err
	}

	mime := f.ContentType
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	if mime == "" {
		mime = "application/octet-stream"
	}

	size, err := io.Copy(io.Discard, br)
	if err != nil {
		return 0, "", err
	}
	return size, mime, nil
}

var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true,
	".c": true, ".h": true, ".cpp": true, ".rs": true, ".rb": true,
	".sh": true, ".sql": true, ".m": true, ".r": true,
}

// KindFor classifies a file as a message attachment kind.
func KindFor(mime, name string) (model.AttachmentKind, bool) {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return model.AttachmentImage, true
	case mime == "application/pdf":
		return model.AttachmentPDF, true
	case codeExtensions[strings.ToLower(filepath.Ext(name))]:
		return model.AttachmentCode, true
	}
	return "", false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
