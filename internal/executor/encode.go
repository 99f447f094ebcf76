package executor

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/compiler"
)

// encoder renders values into chunks. It keeps state across values,
// so one encoder serves a single run and is not safe for concurrent use.
type encoder struct {
	format compiler.Format
	count  int
	header []string
}

func newEncoder(format compiler.Format) *encoder {
	return &encoder{format: format}
}

func (e *encoder) encode(v any) (string, error) {
	defer func() { e.count++ }()

	switch e.format {
	case compiler.FormatRaw:
		if s, ok := v.(string); ok {
			return s + "\n", nil
		}

		return encodeJSON(v, "")
	case compiler.FormatJSON:
		return encodeJSON(v, "")
	case compiler.FormatPretty:
		return encodeJSON(v, "  ")
	case compiler.FormatYAML:
		return e.encodeYAML(v)
	case compiler.FormatCSV:
		return e.encodeRow(v, ',')
	case compiler.FormatTSV:
		return e.encodeRow(v, '\t')
	default:
		return "", errors.Errorf("unsupported output type %q", e.format)
	}
}

func encodeJSON(v any, indent string) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	err := enc.Encode(v)
	if err != nil {
		return "", errors.Wrap(err, "unable to encode json")
	}

	return buf.String(), nil
}

func (e *encoder) encodeYAML(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "unable to encode yaml")
	}

	doc := string(out)
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}

	if e.count > 0 {
		doc = "---\n" + doc
	}

	return doc, nil
}

// encodeRow writes arrays as rows and objects as rows under a header
// taken from the sorted keys of the first object.
func (e *encoder) encodeRow(v any, comma rune) (string, error) {
	var rows [][]string

	switch val := v.(type) {
	case []any:
		row := make([]string, len(val))
		for i, cell := range val {
			row[i] = cellString(cell)
		}

		rows = append(rows, row)
	case map[string]any:
		if e.header == nil {
			e.header = make([]string, 0, len(val))
			for k := range val {
				e.header = append(e.header, k)
			}

			sort.Strings(e.header)
			rows = append(rows, e.header)
		}

		row := make([]string, len(e.header))
		for i, k := range e.header {
			row[i] = cellString(val[k])
		}

		rows = append(rows, row)
	default:
		rows = append(rows, []string{cellString(val)})
	}

	var buf bytes.Buffer

	w := csv.NewWriter(&buf)
	w.Comma = comma

	err := w.WriteAll(rows)
	if err != nil {
		return "", errors.Wrap(err, "unable to encode row")
	}

	return buf.String(), nil
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool, int, float64:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}

		return string(b)
	}
}
