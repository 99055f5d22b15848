package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

type (
	// Field is a single column cell from an input row. Fields are
	// kept as an ordered slice (rather than a map) so that persisted
	// metadata preserves the column order of the input file.
	Field struct {
		Key   string
		Value string
	}

	// Row is one record from the input file. URL holds the trimmed
	// contents of the designated URL column (which may be empty),
	// and Fields holds every OTHER column in insertion order.
	Row struct {
		URL    string
		Fields []Field
	}

	// RowSet is the fully-resolved input to a batch run.
	RowSet struct {
		rows []Row
	}
)

// Load reads a CSV file with a header row and resolves each record in
// to a Row. The URL is taken from the column named by urlColumn; if
// that column does not exist (or urlColumn is blank), the FIRST
// column is used instead. Rows with an empty URL cell are retained -
// deciding what to do with them is the orchestrator's job, not the
// row source's.
func Load(path string, urlColumn string) (*RowSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file '%s': %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of input file '%s': %w", path, err)
	}

	urlIndex := 0
	if urlColumn != "" {
		for i, name := range header {
			if name == urlColumn {
				urlIndex = i
				break
			}
		}
	}

	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read input file '%s': %w", path, err)
		}

		row := Row{Fields: make([]Field, 0, len(record)-1)}
		for i, cell := range record {
			if i >= len(header) {
				break
			}

			if i == urlIndex {
				row.URL = strings.TrimSpace(cell)
				continue
			}

			row.Fields = append(row.Fields, Field{Key: header[i], Value: cell})
		}

		rows = append(rows, row)
	}

	return &RowSet{rows: rows}, nil
}

// Row returns the row at the given ordinal.
func (set *RowSet) Row(ordinal int) Row {
	return set.rows[ordinal]
}

// Len returns the number of rows in the set.
func (set *RowSet) Len() int {
	return len(set.rows)
}
