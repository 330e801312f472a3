// Package tabular turns delimited text into a header + keyed rows table.
//
// Ragged input is tolerated: short records are padded with empty strings,
// fields beyond the header are dropped, blank lines are skipped and a UTF-8
// byte order mark in front of the header is removed.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/csvbrowser/internal/common"
	"github.com/dmitrijs2005/csvbrowser/internal/server/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse reads r fully. The first record names the columns; an empty input
// yields an empty table. Malformed quoting that the lenient reader still
// cannot recover from is reported as common.ErrorParse.
func Parse(r io.Reader) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", common.ErrorParse, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	table := &models.Table{Headers: []string{}, Rows: []map[string]string{}}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", common.ErrorParse, err)
	}
	table.Headers = header

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorParse, err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
