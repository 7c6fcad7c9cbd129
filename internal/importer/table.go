package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// FileKind is the container format of an uploaded file
type FileKind string

const (
	KindCSV  FileKind = "csv"
	KindXLSX FileKind = "xlsx"
	KindXLS  FileKind = "xls"
)

// AllKinds lists every kind the decoder understands
var AllKinds = []FileKind{KindCSV, KindXLSX, KindXLS}

// RawTable is a decoded cell grid: one header row plus data rows.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	// HeaderRow is the 1-based line of the header in the source file.
	HeaderRow int `json:"headerRow"`
}

// KindFromFilename maps a file extension to a FileKind restricted to accepted.
func KindFromFilename(filename string, accepted []FileKind) (FileKind, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, k := range accepted {
		if string(k) == ext {
			return k, nil
		}
	}
	return "", &UnsupportedFileTypeError{Filename: filename, Accepted: accepted}
}

// Decode turns file bytes into a RawTable. preferredSheet selects a workbook
// sheet by case-insensitive name and falls back to the first sheet.
func Decode(kind FileKind, data []byte, preferredSheet string) (*RawTable, error) {
	var (
		grid [][]string
		err  error
	)

	switch kind {
	case KindCSV:
		grid, err = decodeCSV(data)
	case KindXLSX:
		grid, err = decodeXLSX(data, preferredSheet)
	case KindXLS:
		grid, err = decodeXLS(data)
	default:
		return nil, &UnsupportedFileTypeError{Filename: "upload." + string(kind), Accepted: AllKinds}
	}
	if err != nil {
		return nil, err
	}

	return newRawTable(grid)
}

func newRawTable(grid [][]string) (*RawTable, error) {
	// Leading blank lines are common in carrier exports.
	start := 0
	for start < len(grid) && isBlankRow(grid[start]) {
		start++
	}
	grid = grid[start:]

	dataRows := 0
	for _, row := range grid[min(1, len(grid)):] {
		if !isBlankRow(row) {
			dataRows++
		}
	}
	if len(grid) == 0 || dataRows == 0 {
		return nil, &EmptyOrHeaderOnlyFileError{Rows: len(grid)}
	}

	header := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		header[i] = strings.TrimSpace(cell)
	}

	return &RawTable{Header: header, Rows: grid[1:], HeaderRow: start + 1}, nil
}

func decodeCSV(data []byte) ([][]string, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode text encoding: %w", ErrUnreadableFile, err)
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse CSV: %w", ErrUnreadableFile, err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// toUTF8 strips byte order marks and decodes non-UTF-8 text as Windows-1256,
// the code page Arabic Excel installs export CSV with.
func toUTF8(data []byte) ([]byte, error) {
	if !utf8.Valid(data) && !hasUnicodeBOM(data) {
		out, _, err := transform.Bytes(charmap.Windows1256.NewDecoder(), data)
		return out, err
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	return out, err
}

func hasUnicodeBOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(data, []byte{0xFF, 0xFE}) ||
		bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

// detectDelimiter counts candidate separators outside quotes on the first line.
func detectDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, r := range string(line) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ',' || r == ';' || r == '\t'):
			counts[r]++
		}
	}

	best := ','
	for _, r := range []rune{';', '\t'} {
		if counts[r] > counts[best] {
			best = r
		}
	}
	return best
}

func decodeXLSX(data []byte, preferredSheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %w", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &EmptyOrHeaderOnlyFileError{}
	}

	sheet := sheets[0]
	if preferredSheet != "" {
		for _, name := range sheets {
			if strings.EqualFold(strings.TrimSpace(name), preferredSheet) {
				sheet = name
				break
			}
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrUnreadableFile, sheet, err)
	}
	return rows, nil
}

// decodeXLS recovers from panics inside the BIFF reader, which it raises on
// some truncated files.
func decodeXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: malformed XLS file: %v", ErrUnreadableFile, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open XLS file: %w", ErrUnreadableFile, err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &EmptyOrHeaderOnlyFileError{}
	}

	rows = make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		last := row.LastCol()
		cells := make([]string, max(last, 0))
		for c := row.FirstCol(); c < last; c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
