// Package rows reads mapping rows from a CSV file and reports every problem
// found in it.
package rows

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"midiautomate/internal/automate"
)

// Headers lists the columns every file must carry, in template order.
var Headers = []string{"device", "channel", "cc", "layer 1", "layer 2", "layer 3", "layer 4", "repeat"}

var required = []string{"device", "channel", "cc", "layer 1", "layer 2"}

var ranges = map[string]string{
	"device":  "{1, 2, 3, …}",
	"channel": "{1, 2, 3, …, 16}",
	"cc":      "{0, 1, 2, …, 127}",
}

// ValidationError lists every problem found in a file. Row numbers count the
// heading row.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("CSV has problems (%d):\n%s", len(e.Problems), strings.Join(e.Problems, "\n"))
}

// Load reads and validates the file at path.
func Load(path string) ([]automate.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("Could not read CSV: %v", err)}}
	}
	return Parse(bytes.NewReader(data))
}

// Parse reads rows from r. Rows are returned only when the whole input is
// valid; otherwise the error is a *ValidationError.
func Parse(r io.Reader) ([]automate.Row, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ValidationError{Problems: []string{
			fmt.Sprintf("No header row found. The first row must contain %s.", strings.Join(Headers, ", ")),
		}}
	}
	if err != nil {
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("Could not read CSV: %v", err)}}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var problems []string
	var missing []string
	for _, h := range Headers {
		if _, ok := columns[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("Missing some headings: %s.", strings.Join(missing, ", ")))
	}

	var out []automate.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("Could not read CSV: %v", err))
			break
		}
		line, _ := reader.FieldPos(0)

		fields := make(map[string]string, len(columns))
		for name, i := range columns {
			if i < len(record) {
				fields[name] = strings.TrimSpace(record[i])
			}
		}
		row, rowProblems := parseRow(line, fields)
		problems = append(problems, rowProblems...)
		if len(rowProblems) == 0 {
			out = append(out, row)
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}

func parseRow(line int, f map[string]string) (automate.Row, []string) {
	var problems []string
	where := fmt.Sprintf("Row %d (device=%s,channel=%s,cc=%s)", line, f["device"], f["channel"], f["cc"])

	for _, h := range required {
		if f[h] == "" {
			problems = append(problems, fmt.Sprintf("Missing an entry in row %d: '%s'.", line, h))
		}
	}
	if f["layer 3"] != "" && f["layer 2"] == "" {
		problems = append(problems, where+": Cannot have 'layer 3' without 'layer 2'.")
	}
	if f["layer 4"] != "" && f["layer 3"] == "" {
		problems = append(problems, where+": Cannot have 'layer 4' without 'layer 3'.")
	}
	if f["repeat"] != "" && f["layer 3"] == "" && f["layer 4"] == "" {
		problems = append(problems, where+": Must have 'layer 3' or 'layer 4' to have 'repeat'.")
	}

	values := make(map[string]int, 3)
	for _, h := range []string{"device", "channel", "cc"} {
		v, ok := decimal(f[h])
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: Must have an integer for '%s'.", where, h))
			continue
		}
		if !inRange(h, v) {
			problems = append(problems, fmt.Sprintf("%s: Must have an integer from %s for '%s'.", where, ranges[h], h))
		}
		values[h] = v
	}

	repeat := 0
	if s := f["repeat"]; s != "" {
		v, ok := decimal(s)
		if !ok || v < 1 {
			problems = append(problems, where+": Must be blank or have an integer (1, 2, 3, …) for 'repeat'.")
		}
		repeat = v
	}

	row := automate.Row{
		Device:  values["device"],
		Channel: values["channel"],
		CC:      values["cc"],
		Layers:  [4]string{f["layer 1"], f["layer 2"], f["layer 3"], f["layer 4"]},
		Repeat:  repeat,
	}
	return row, problems
}

func inRange(header string, v int) bool {
	switch header {
	case "device":
		return v >= 1
	case "channel":
		return v >= 1 && v <= 16
	case "cc":
		return v >= 0 && v <= 127
	}
	return false
}

// decimal accepts only unsigned base-10 digits.
func decimal(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && bytes.Equal(buf, []byte{0xEF, 0xBB, 0xBF}) {
		return r
	}
	return io.MultiReader(bytes.NewReader(buf[:n]), r)
}
