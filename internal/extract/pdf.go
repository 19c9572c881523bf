package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/nhle/mailshot/internal/errors"
)

// ScannedPDFWarning is attached to results for PDFs that look image-based.
const ScannedPDFWarning = "This PDF appears to be scanned or image-based. " +
	"Little or no text could be extracted, so results may be incomplete."

func (e *Extractor) extractPDF(ctx context.Context, path string) Result {
	f, r, err := pdf.Open(path)
	if err != nil {
		return failure(FormatPDF, apperrors.ExtractionFailed, fmt.Sprintf("opening PDF: %v", err))
	}
	defer f.Close()

	pageCount := r.NumPage()
	pages := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return failure(FormatPDF, apperrors.ExtractionFailed, err.Error())
		}

		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return failure(FormatPDF, apperrors.ExtractionFailed,
				fmt.Sprintf("reading PDF page %d: %v", i, err))
		}
		pages = append(pages, text)
	}

	return e.pdfResult(pages)
}

// pdfResult joins page texts and applies the scanned-document heuristic.
// A scanned PDF is still a successful extraction; it carries a warning
// instead of silently returning empty text.
func (e *Extractor) pdfResult(pages []string) Result {
	var sb strings.Builder
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n", i+1)
		sb.WriteString(page)
	}

	total := 0
	for _, page := range pages {
		total += utf8.RuneCountInString(strings.TrimSpace(page))
	}

	res := success(sb.String())
	res.PageCount = len(pages)

	if looksScanned(total, len(pages), e.opts) {
		res.IsScanned = true
		res.Warning = ScannedPDFWarning
	}

	return res
}

// looksScanned applies the chars-per-page heuristic.
func looksScanned(totalChars, pageCount int, opts Options) bool {
	if pageCount < 1 {
		pageCount = 1
	}
	avg := totalChars / pageCount
	return avg < opts.ScannedCharsPerPage && totalChars < opts.ScannedMinChars
}
