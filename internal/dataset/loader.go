package dataset

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"call-quality-go/internal/types"
)

var (
	ErrNoSheets           = errors.New("workbook has no sheets")
	ErrNoRows             = errors.New("sheet has no data rows")
	ErrNoTranscriptColumn = errors.New("no transcript column found")
)

// columns holds detected header positions; -1 means absent.
type columns struct {
	transcript, callID, customer, threshold int
}

func detectColumns(header []string) columns {
	c := columns{transcript: -1, callID: -1, customer: -1, threshold: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "transcript") || l == "text":
			if c.transcript == -1 {
				c.transcript = i
			}
		case strings.Contains(l, "call id") || strings.Contains(l, "call_id") || strings.Contains(l, "callid") || l == "id":
			if c.callID == -1 {
				c.callID = i
			}
		case strings.Contains(l, "customer") || strings.Contains(l, "name"):
			if c.customer == -1 {
				c.customer = i
			}
		case strings.Contains(l, "threshold"):
			if c.threshold == -1 {
				c.threshold = i
			}
		}
	}
	return c
}

// LoadTranscripts reads call requests from the first sheet of the workbook
// at path. Rows with a blank transcript cell are kept; the pipeline scores
// them as absent data.
func LoadTranscripts(path string) ([]types.CallRequest, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return readRequests(f)
}

// ReadTranscripts is LoadTranscripts over an in-memory workbook (uploads).
func ReadTranscripts(r io.Reader) ([]types.CallRequest, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readRequests(f)
}

func readRequests(f *excelize.File) ([]types.CallRequest, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, ErrNoRows
	}

	cols := detectColumns(rows[0])
	if cols.transcript == -1 {
		return nil, ErrNoTranscriptColumn
	}

	var out []types.CallRequest
	for i, r := range rows {
		if i == 0 {
			continue
		}
		req := types.CallRequest{
			Transcript:   cell(r, cols.transcript),
			CallID:       strings.TrimSpace(cell(r, cols.callID)),
			CustomerName: strings.TrimSpace(cell(r, cols.customer)),
		}
		if v := strings.TrimSpace(cell(r, cols.threshold)); v != "" {
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: threshold %q: %w", i+1, v, err)
			}
			req.ReviewThreshold = &t
		}
		// Fully blank rows are spreadsheet padding.
		if req.Transcript == "" && req.CallID == "" && req.CustomerName == "" {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
