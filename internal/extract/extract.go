// Package extract converts a single file into normalized text, choosing a
// format-specific strategy by extension and falling back to OCR for images.
//
// Extract never returns an error and never panics: every failure is
// reported as a Result with Success=false and a human-readable Reason.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/logging"
)

// Format tags reported in Result.Format.
const (
	FormatText  = "text"
	FormatPDF   = "pdf"
	FormatWord  = "word"
	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatImage = "image"
)

// TruncationMarker is appended to text cut at Options.MaxChars.
const TruncationMarker = "... [truncated]"

// Character ceilings used by the two extraction call sites.
const (
	SummaryMaxChars  = 5000
	AnalysisMaxChars = 50000
)

// Result is the outcome of extracting one file.
type Result struct {
	Success bool
	Text    string
	Format  string

	// Kind classifies a failure (UnsupportedFormat or ExtractionFailed).
	Kind   apperrors.Kind
	Reason string

	// Warning is a non-fatal hint for the user, such as a scanned PDF.
	Warning string

	IsScanned  bool
	HasOCRText bool
	PageCount  int
	Truncated  bool

	// ImageBase64 and MIMEType carry an image for vision-capable models
	// when OCR produced no usable text.
	ImageBase64 string
	MIMEType    string
}

// Err returns the classified failure for an unsuccessful result, or nil.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	kind := r.Kind
	if kind == "" {
		kind = apperrors.ExtractionFailed
	}
	return apperrors.New(kind, r.Reason)
}

// HasImage reports whether the result carries raw image data.
func (r Result) HasImage() bool {
	return r.ImageBase64 != ""
}

// Options tunes truncation and the heuristics used to judge extracted
// text. The thresholds are approximate and were never derived from data.
type Options struct {
	// MaxChars caps the returned text; 0 disables truncation.
	MaxChars int

	// A PDF is considered scanned when its average characters per page is
	// below ScannedCharsPerPage and its total is below ScannedMinChars.
	ScannedCharsPerPage int
	ScannedMinChars     int

	// OCR output shorter than OCRMinChars is treated as unusable.
	OCRMinChars int
}

// DefaultOptions returns the standard thresholds with the attachment
// summary ceiling.
func DefaultOptions() Options {
	return Options{
		MaxChars:            SummaryMaxChars,
		ScannedCharsPerPage: 100,
		ScannedMinChars:     50,
		OCRMinChars:         20,
	}
}

// Extractor dispatches files to format-specific readers.
type Extractor struct {
	opts   Options
	ocr    OCR
	logger *slog.Logger
}

// New creates an Extractor. A nil ocr disables OCR so images always take
// the vision fallback.
func New(opts Options, ocr OCR, logger *slog.Logger) *Extractor {
	return &Extractor{
		opts:   opts,
		ocr:    ocr,
		logger: logging.OrDefault(logger),
	}
}

// WithMaxChars returns a copy of e with a different text ceiling.
func (e *Extractor) WithMaxChars(n int) *Extractor {
	cp := *e
	cp.opts.MaxChars = n
	return &cp
}

// Options returns the extractor's options.
func (e *Extractor) Options() Options {
	return e.opts
}

type extractFunc func(ctx context.Context, path string) Result

// Extract reads the file at path and returns its text payload.
func (e *Extractor) Extract(ctx context.Context, path string) (res Result) {
	ext := strings.ToLower(filepath.Ext(path))
	logger := e.logger.With(logging.File(filepath.Base(path)))

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extractor panicked", slog.Any("panic", r))
			res = failure(res.Format, apperrors.ExtractionFailed,
				fmt.Sprintf("could not read %s file: parser error", strings.TrimPrefix(ext, ".")))
		}
	}()

	fn, format := e.dispatch(ext)
	if fn == nil {
		return failure("", apperrors.UnsupportedFormat,
			fmt.Sprintf("unsupported file type %q", ext))
	}
	res.Format = format

	info, err := os.Stat(path)
	if err != nil {
		return failure(format, apperrors.ExtractionFailed,
			fmt.Sprintf("cannot open file: %v", err))
	}
	if info.IsDir() {
		return failure(format, apperrors.ExtractionFailed, "path is a directory")
	}
	if info.Size() == 0 {
		return failure(format, apperrors.ExtractionFailed, "file is empty")
	}

	if err := ctx.Err(); err != nil {
		return failure(format, apperrors.ExtractionFailed, err.Error())
	}

	res = fn(ctx, path)
	res.Format = format
	if !res.Success {
		logger.Debug("extraction failed", slog.String("reason", res.Reason))
		return res
	}

	res.Text, res.Truncated = Truncate(res.Text, e.opts.MaxChars)
	logger.Debug("extracted file",
		slog.String("format", format),
		slog.Int("chars", utf8.RuneCountInString(res.Text)),
		slog.Bool("truncated", res.Truncated))

	return res
}

// dispatch selects the reader for a lower-cased extension.
func (e *Extractor) dispatch(ext string) (extractFunc, string) {
	switch {
	case ext == ".csv":
		return extractText, FormatCSV
	case textExtensions[ext]:
		return extractText, FormatText
	case ext == ".pdf":
		return e.extractPDF, FormatPDF
	case ext == ".doc" || ext == ".docx":
		return extractWord, FormatWord
	case ext == ".xls" || ext == ".xlsx":
		return extractSpreadsheet, FormatExcel
	case imageMIMETypes[ext] != "":
		return e.extractImage, FormatImage
	}
	return nil, ""
}

// Supported reports whether path has an extension Extract can handle.
func Supported(path string) bool {
	var e Extractor
	fn, _ := e.dispatch(strings.ToLower(filepath.Ext(path)))
	return fn != nil
}

// Truncate cuts text to max runes and appends TruncationMarker. The
// returned length is never more than max plus the marker length.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:max]) + TruncationMarker, true
}

func failure(format string, kind apperrors.Kind, reason string) Result {
	return Result{
		Success: false,
		Format:  format,
		Kind:    kind,
		Reason:  reason,
	}
}

func success(text string) Result {
	return Result{Success: true, Text: text}
}
