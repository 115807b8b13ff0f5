package mmlu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrDataFormat reports a malformed benchmark row.
var ErrDataFormat = errors.New("mmlu: bad row format")

// NumChoices is fixed by the benchmark format: four options per question.
const NumChoices = 4

var choiceLetters = [NumChoices]string{"A", "B", "C", "D"}

// Row is one multiple-choice question. Immutable once loaded; identified by
// its index within the table it was read from.
type Row struct {
	Question string
	Choices  [NumChoices]string
	Answer   string // one of A-D
}

// LoadTable reads a headerless 6-column CSV file (question, four choices,
// correct letter) into an ordered slice of rows.
func LoadTable(path string) ([]Row, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("mmlu: empty table path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmlu: open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("mmlu: load %q: %w", path, err)
	}
	return rows, nil
}

// ReadTable parses CSV question rows from r.
func ReadTable(r io.Reader) ([]Row, error) {
	if r == nil {
		return nil, errors.New("mmlu: nil reader")
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count is checked per row below

	var out []Row
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrDataFormat, line, err)
		}
		if len(record) != NumChoices+2 {
			return nil, fmt.Errorf("%w: row %d: got %d columns, want %d",
				ErrDataFormat, line, len(record), NumChoices+2)
		}

		row := Row{Question: record[0]}
		copy(row.Choices[:], record[1:NumChoices+1])

		answer := strings.ToUpper(strings.TrimSpace(record[NumChoices+1]))
		if !validAnswerLetter(answer) {
			return nil, fmt.Errorf("%w: row %d: answer %q is not one of A-D",
				ErrDataFormat, line, record[NumChoices+1])
		}
		row.Answer = answer

		out = append(out, row)
	}
	return out, nil
}

func validAnswerLetter(s string) bool {
	for _, l := range choiceLetters {
		if s == l {
			return true
		}
	}
	return false
}
