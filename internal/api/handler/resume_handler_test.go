package handler

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"resume-insight-go/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeArchive 内存版文档归档，记录写入并按reportID提供读取
type fakeArchive struct {
	transcripts     map[string]string
	originals       map[string]string
	lastExpirySeen  time.Duration
	presignedFormat string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		transcripts:     map[string]string{},
		originals:       map[string]string{},
		presignedFormat: "https://archive.local/%s?signed=1",
	}
}

func (f *fakeArchive) ArchiveOriginal(ctx context.Context, reportID, fileName string, reader io.Reader, fileSize int64) (string, error) {
	f.originals[reportID] = fileName
	return "resume/" + reportID + "/original", nil
}

func (f *fakeArchive) ArchiveTranscript(ctx context.Context, reportID string, text string) (string, error) {
	f.transcripts[reportID] = text
	return "resume/" + reportID + "/transcript.txt", nil
}

func (f *fakeArchive) GetTranscript(ctx context.Context, reportID string) (string, error) {
	text, ok := f.transcripts[reportID]
	if !ok {
		return "", fmt.Errorf("%w: 转录文本 %s", storage.ErrNotFound, reportID)
	}
	return text, nil
}

func (f *fakeArchive) GetOriginalURL(ctx context.Context, reportID string, expiry time.Duration) (string, error) {
	f.lastExpirySeen = expiry
	if _, ok := f.originals[reportID]; !ok {
		return "", fmt.Errorf("%w: 原始文件 %s", storage.ErrNotFound, reportID)
	}
	return fmt.Sprintf(f.presignedFormat, reportID), nil
}

func TestHandleGetTranscript(t *testing.T) {
	archive := newFakeArchive()
	archive.transcripts["r-001"] = "張三的履歷內容"
	h := NewResumeHandler(nil, &storage.Storage{MinIO: archive}, nil)

	text, err := h.HandleGetTranscript(context.Background(), "r-001")
	require.NoError(t, err)
	assert.Equal(t, "張三的履歷內容", text)
}

func TestHandleGetTranscriptNotFound(t *testing.T) {
	h := NewResumeHandler(nil, &storage.Storage{MinIO: newFakeArchive()}, nil)

	_, err := h.HandleGetTranscript(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHandleGetTranscriptNotConfigured(t *testing.T) {
	h := NewResumeHandler(nil, &storage.Storage{}, nil)
	_, err := h.HandleGetTranscript(context.Background(), "r-001")
	assert.ErrorIs(t, err, ErrArchiveNotConfigured)

	noStorage := NewResumeHandler(nil, nil, nil)
	_, err = noStorage.HandleGetTranscript(context.Background(), "r-001")
	assert.ErrorIs(t, err, ErrArchiveNotConfigured)
}

func TestHandleGetOriginalURL(t *testing.T) {
	archive := newFakeArchive()
	archive.originals["r-002"] = "resume.pdf"
	h := NewResumeHandler(nil, &storage.Storage{MinIO: archive}, nil)

	url, err := h.HandleGetOriginalURL(context.Background(), "r-002")
	require.NoError(t, err)
	assert.Equal(t, "https://archive.local/r-002?signed=1", url)
	assert.Greater(t, archive.lastExpirySeen, time.Duration(0), "下载链接必须是限时的")
}

func TestHandleGetOriginalURLNotFound(t *testing.T) {
	h := NewResumeHandler(nil, &storage.Storage{MinIO: newFakeArchive()}, nil)

	_, err := h.HandleGetOriginalURL(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
