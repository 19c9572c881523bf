package harvest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailshot/internal/ai"
	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/extract"
	"github.com/nhle/mailshot/internal/logging"
	"github.com/nhle/mailshot/internal/model"
	"github.com/nhle/mailshot/internal/ratelimit"
)

type fakeInvoker struct {
	requests []ai.Request
	failOn   string
}

func (f *fakeInvoker) Invoke(_ context.Context, req ai.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.failOn != "" && strings.Contains(req.User, f.failOn) {
		return "", apperrors.New(apperrors.ProviderError, "AI request timed out after 2m0s")
	}
	return "  - point one\n- point two  ", nil
}

func writeFile(t *testing.T, dir, name string, data []byte) model.AttachmentFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return model.AttachmentFile{
		Filename:  name,
		Path:      path,
		Size:      int64(len(data)),
		Extension: filepath.Ext(name),
	}
}

func newExtractor() *extract.Extractor {
	return extract.New(extract.DefaultOptions(), nil, logging.Discard())
}

func TestHarvest_PartialFailureKeepsOrderAndCount(t *testing.T) {
	dir := t.TempDir()
	files := []model.AttachmentFile{
		writeFile(t, dir, "notes.txt", []byte("Budget is 1.2M")),
		writeFile(t, dir, "broken.docx", []byte("not a zip archive")),
		writeFile(t, dir, "data.csv", []byte("a,b\n1,2\n")),
		writeFile(t, dir, "empty.md", nil),
		writeFile(t, dir, "report.md", []byte("# Report\nAll good")),
	}
	inv := &fakeInvoker{}

	got := New(newExtractor(), inv, nil, logging.Discard()).Harvest(context.Background(), files)

	require.Len(t, got, 5)
	wantNames := []string{"notes.txt", "broken.docx", "data.csv", "empty.md", "report.md"}
	for i, s := range got {
		assert.Equal(t, wantNames[i], s.Filename)
	}

	assert.False(t, got[0].Failed)
	assert.Equal(t, "- point one\n- point two", got[0].Summary)
	assert.Equal(t, "text", got[0].Type)
	assert.Equal(t, len("Budget is 1.2M"), got[0].CharCount)

	assert.True(t, got[1].Failed)
	assert.True(t, strings.HasPrefix(got[1].Summary, "[Error: "))
	assert.Equal(t, "word", got[1].Type)

	assert.False(t, got[2].Failed)
	assert.Equal(t, "csv", got[2].Type)

	assert.True(t, got[3].Failed)
	assert.Equal(t, "[Error: file is empty]", got[3].Summary)

	assert.False(t, got[4].Failed)

	assert.Len(t, inv.requests, 3)
	for _, req := range inv.requests {
		assert.Equal(t, SystemPrompt, req.System)
		assert.True(t, strings.HasPrefix(req.User, TextInstruction))
	}
}

func TestHarvest_DeletesEveryFile(t *testing.T) {
	dir := t.TempDir()
	files := []model.AttachmentFile{
		writeFile(t, dir, "ok.txt", []byte("hello")),
		writeFile(t, dir, "weird.xyz", []byte("???")),
		writeFile(t, dir, "empty.txt", nil),
	}

	New(newExtractor(), &fakeInvoker{}, nil, logging.Discard()).Harvest(context.Background(), files)

	for _, f := range files {
		_, err := os.Stat(f.Path)
		assert.True(t, os.IsNotExist(err), "%s should be deleted", f.Filename)
	}
}

func TestHarvest_UnsupportedType(t *testing.T) {
	dir := t.TempDir()
	files := []model.AttachmentFile{writeFile(t, dir, "archive.zip", []byte("PK"))}

	got := New(newExtractor(), &fakeInvoker{}, nil, logging.Discard()).Harvest(context.Background(), files)

	require.Len(t, got, 1)
	assert.True(t, got[0].Failed)
	assert.Equal(t, "zip", got[0].Type)
	assert.Contains(t, got[0].Summary, "unsupported file type")
}

func TestHarvest_AIFailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	files := []model.AttachmentFile{
		writeFile(t, dir, "a.txt", []byte("first file")),
		writeFile(t, dir, "b.txt", []byte("second file")),
		writeFile(t, dir, "c.txt", []byte("third file")),
	}
	inv := &fakeInvoker{failOn: "second file"}

	got := New(newExtractor(), inv, nil, logging.Discard()).Harvest(context.Background(), files)

	require.Len(t, got, 3)
	assert.False(t, got[0].Failed)
	assert.True(t, got[1].Failed)
	assert.Equal(t, "[Error: AI request timed out after 2m0s]", got[1].Summary)
	assert.False(t, got[2].Failed)
}

func TestHarvest_ImageUsesVision(t *testing.T) {
	dir := t.TempDir()
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	files := []model.AttachmentFile{writeFile(t, dir, "chart.png", png)}
	inv := &fakeInvoker{}

	got := New(newExtractor(), inv, nil, logging.Discard()).Harvest(context.Background(), files)

	require.Len(t, got, 1)
	assert.False(t, got[0].Failed)
	assert.Equal(t, "image", got[0].Type)
	require.Len(t, inv.requests, 1)
	assert.Equal(t, ImageInstruction, inv.requests[0].User)
	require.Len(t, inv.requests[0].Images, 1)
	assert.Equal(t, "image/png", inv.requests[0].Images[0].MIMEType)
}

func TestHarvest_RateLimitedPerFile(t *testing.T) {
	dir := t.TempDir()
	files := []model.AttachmentFile{
		writeFile(t, dir, "a.txt", []byte("one")),
		writeFile(t, dir, "b.txt", []byte("two")),
	}
	limiter := ratelimit.New(1, time.Minute)
	inv := &fakeInvoker{}

	got := New(newExtractor(), inv, limiter, logging.Discard()).Harvest(context.Background(), files)

	require.Len(t, got, 2)
	assert.False(t, got[0].Failed)
	assert.True(t, got[1].Failed)
	assert.Contains(t, got[1].Summary, ratelimit.KeyAttachmentSummary)
	assert.Len(t, inv.requests, 1)

	// The main AI-call budget is untouched.
	assert.True(t, limiter.Allow(ratelimit.KeyAICall))
}

func TestHarvest_Empty(t *testing.T) {
	got := New(newExtractor(), &fakeInvoker{}, nil, logging.Discard()).Harvest(context.Background(), nil)
	assert.Empty(t, got)
}

type scannedExtractor struct {
	text string
}

func (e scannedExtractor) Extract(_ context.Context, _ string) extract.Result {
	return extract.Result{
		Success:   true,
		Text:      e.text,
		Format:    extract.FormatPDF,
		IsScanned: true,
		PageCount: 2,
		Warning:   extract.ScannedPDFWarning,
	}
}

func TestHarvest_ScannedPDF(t *testing.T) {
	t.Run("no text fails with the warning", func(t *testing.T) {
		file := writeFile(t, t.TempDir(), "scan.pdf", []byte("%PDF"))
		inv := &fakeInvoker{}

		got := New(scannedExtractor{}, inv, nil, logging.Discard()).
			Harvest(context.Background(), []model.AttachmentFile{file})

		require.Len(t, got, 1)
		assert.True(t, got[0].Failed)
		assert.Equal(t, "[Error: "+extract.ScannedPDFWarning+"]", got[0].Summary)
		assert.Equal(t, "pdf", got[0].Type)
		assert.Empty(t, inv.requests, "nothing to summarize")
		assert.NoFileExists(t, file.Path)
	})

	t.Run("little text is summarized with the warning appended", func(t *testing.T) {
		text := strings.Repeat("x", 40)
		file := writeFile(t, t.TempDir(), "scan.pdf", []byte("%PDF"))
		inv := &fakeInvoker{}

		got := New(scannedExtractor{text: text}, inv, nil, logging.Discard()).
			Harvest(context.Background(), []model.AttachmentFile{file})

		require.Len(t, got, 1)
		assert.False(t, got[0].Failed)
		assert.Equal(t, 40, got[0].CharCount)
		assert.Equal(t, "- point one\n- point two\n("+extract.ScannedPDFWarning+")", got[0].Summary)
		require.Len(t, inv.requests, 1)
		assert.Contains(t, inv.requests[0].User, text)
		assert.NoFileExists(t, file.Path)
	})
}
