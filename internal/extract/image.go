package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apperrors "github.com/nhle/mailshot/internal/errors"
	"github.com/nhle/mailshot/internal/logging"
)

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// extractImage runs OCR first. Usable OCR text becomes the payload;
// otherwise the raw image is returned base64-encoded for a vision model.
func (e *Extractor) extractImage(ctx context.Context, path string) Result {
	if e.ocr != nil {
		text, err := e.ocr.Recognize(ctx, path)
		if err != nil {
			e.logger.Debug("OCR unavailable, using vision fallback",
				logging.File(filepath.Base(path)), logging.Err(err))
		}
		text = strings.TrimSpace(text)
		if err == nil && utf8.RuneCountInString(text) >= e.opts.OCRMinChars {
			res := success(text)
			res.HasOCRText = true
			return res
		}
		if err == nil {
			e.logger.Debug("OCR text too short",
				logging.File(filepath.Base(path)),
				slog.Int("chars", utf8.RuneCountInString(text)))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failure(FormatImage, apperrors.ExtractionFailed, fmt.Sprintf("reading image: %v", err))
	}

	res := success("")
	res.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	res.MIMEType = imageMIMETypes[strings.ToLower(filepath.Ext(path))]
	return res
}
