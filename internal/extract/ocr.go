package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// OCR recognizes text in an image file.
type OCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Tesseract runs the tesseract command-line tool.
type Tesseract struct {
	// Path is the tesseract binary; "tesseract" is looked up on PATH.
	Path string

	// Languages is passed as -l when set (e.g. "eng+deu").
	Languages string
}

// Recognize implements OCR.
func (t Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	bin := t.Path
	if bin == "" {
		bin = "tesseract"
	}

	args := []string{path, "stdout"}
	if t.Languages != "" {
		args = append(args, "-l", t.Languages)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("running %s: %w: %s", bin, err, msg)
		}
		return "", fmt.Errorf("running %s: %w", bin, err)
	}

	return stdout.String(), nil
}
