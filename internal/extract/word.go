package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"

	apperrors "github.com/nhle/mailshot/internal/errors"
)

// extractWord reads .docx natively and .doc through docconv's legacy
// converter, which needs the wvText tool at runtime.
func extractWord(_ context.Context, path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return failure(FormatWord, apperrors.ExtractionFailed, fmt.Sprintf("opening document: %v", err))
	}
	defer f.Close()

	var convert func(io.Reader) (string, map[string]string, error)
	if strings.ToLower(filepath.Ext(path)) == ".doc" {
		convert = docconv.ConvertDoc
	} else {
		convert = docconv.ConvertDocx
	}

	text, _, err := convert(f)
	if err != nil {
		return failure(FormatWord, apperrors.ExtractionFailed, fmt.Sprintf("reading Word document: %v", err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return failure(FormatWord, apperrors.ExtractionFailed, "document contains no text")
	}

	return success(text)
}
