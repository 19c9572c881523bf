package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/nhle/mailshot/internal/errors"
)

// extractSpreadsheet renders every sheet as a comma-delimited block
// headed by the sheet name, in workbook order.
func extractSpreadsheet(ctx context.Context, path string) Result {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return failure(FormatExcel, apperrors.ExtractionFailed, fmt.Sprintf("opening spreadsheet: %v", err))
	}
	defer f.Close()

	var sb strings.Builder
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return failure(FormatExcel, apperrors.ExtractionFailed, err.Error())
		}

		rows, err := f.GetRows(name)
		if err != nil {
			return failure(FormatExcel, apperrors.ExtractionFailed,
				fmt.Sprintf("reading sheet %q: %v", name, err))
		}

		block, err := sheetBlock(name, rows)
		if err != nil {
			return failure(FormatExcel, apperrors.ExtractionFailed, err.Error())
		}
		sb.WriteString(block)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return failure(FormatExcel, apperrors.ExtractionFailed, "spreadsheet contains no sheets")
	}

	return success(text)
}

func sheetBlock(name string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "=== Sheet: %s ===\n", name)

	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("encoding sheet %q: %w", name, err)
	}
	buf.WriteString("\n")

	return buf.String(), nil
}
