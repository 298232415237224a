package reader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"customer-option-service/models"
	aws_pkg "customer-option-service/pkg/aws"

	"github.com/xuri/excelize/v2"
)

// CsvReader turns an import source into ordered rows and checks them against a field spec.
type CsvReader interface {
	ReadCsv(ctx context.Context, source string) ([]models.ImportRow, error)
	IsRowValid(row models.ImportRow, fields models.RequiredFieldSpec) bool
}

// FileReader reads CSV and XLSX sources from the local filesystem or from S3
// ("s3://bucket/key"). The first line is the header.
type FileReader struct {
	objects aws_pkg.ObjectGetter
}

// NewFileReader creates a FileReader. objects may be nil when S3 is not configured.
func NewFileReader(objects aws_pkg.ObjectGetter) *FileReader {
	return &FileReader{objects: objects}
}

func (r *FileReader) ReadCsv(ctx context.Context, source string) ([]models.ImportRow, error) {
	body, err := r.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var records [][]string
	if isSpreadsheet(source) {
		records, err = readSheet(body)
	} else {
		records, err = readDelimited(body)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return toRows(records)
}

// IsRowValid reports whether every mandatory field is present and not blank.
// Optional fields may be missing.
func (r *FileReader) IsRowValid(row models.ImportRow, fields models.RequiredFieldSpec) bool {
	for field, mandatory := range fields {
		if !mandatory {
			continue
		}
		if strings.TrimSpace(row.Data[field]) == "" {
			return false
		}
	}
	return true
}

func (r *FileReader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if bucket, key, ok := aws_pkg.ParseS3URI(source); ok {
		if r.objects == nil {
			return nil, fmt.Errorf("cannot read %s: S3 is not configured", source)
		}
		return r.objects.GetObject(ctx, bucket, key)
	}
	f, err := os.Open(filepath.Clean(source))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", source, err)
	}
	return f, nil
}

func isSpreadsheet(source string) bool {
	return strings.EqualFold(filepath.Ext(source), ".xlsx")
}

func readDelimited(body io.Reader) ([][]string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readSheet(body io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(body)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func toRows(records [][]string) ([]models.ImportRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("import source must include a header row")
	}

	columns := make([]string, len(records[0]))
	for i, h := range records[0] {
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	rows := make([]models.ImportRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		data := make(map[string]string, len(columns))
		for idx, col := range columns {
			if col == "" || idx >= len(record) {
				continue
			}
			data[col] = strings.TrimSpace(record[idx])
		}
		rows = append(rows, models.ImportRow{Line: i + 1, Columns: columns, Data: data})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
