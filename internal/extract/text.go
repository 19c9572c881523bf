package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	apperrors "github.com/nhle/mailshot/internal/errors"
)

// textExtensions are read verbatim as UTF-8.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".json": true, ".xml": true,
	".html": true, ".htm": true, ".log": true,
	".yaml": true, ".yml": true, ".ini": true, ".toml": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true,
	".cs": true, ".c": true, ".cpp": true, ".h": true, ".rb": true,
	".rs": true, ".sql": true, ".sh": true, ".ps1": true, ".css": true,
}

const utf8BOM = "\uFEFF"

func extractText(_ context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure("", apperrors.ExtractionFailed, fmt.Sprintf("reading file: %v", err))
	}

	text := strings.ToValidUTF8(string(data), "\uFFFD")
	text = strings.TrimPrefix(text, utf8BOM)
	if strings.TrimSpace(text) == "" {
		return failure("", apperrors.ExtractionFailed, "file contains no text")
	}

	return success(text)
}
