package executor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/compiler"
)

// ErrMalformedRecord is returned when a record of the input cannot be decoded.
var ErrMalformedRecord = errors.New("malformed record")

const maxLineSize = 16 * 1024 * 1024

// emitFn pushes a decoded value downstream. It fails once the run is cancelled.
type emitFn func(v any) error

func decode(ctx context.Context, format compiler.Format, input []byte, emit emitFn) error {
	switch format {
	case compiler.FormatRaw:
		return decodeRaw(input, emit)
	case compiler.FormatJSON:
		return decodeJSON(input, emit)
	case compiler.FormatCSV:
		return decodeCSV(input, ',', emit)
	case compiler.FormatTSV:
		return decodeCSV(input, '\t', emit)
	case compiler.FormatYAML:
		return decodeYAML(ctx, input, emit)
	default:
		return errors.Errorf("unsupported input type %q", format)
	}
}

// decodeRaw emits one string per line. Only the '\n' is removed, a '\r'
// before it stays part of the line.
func decodeRaw(input []byte, emit emitFn) error {
	scanner := bufio.NewScanner(bytes.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLines)

	for scanner.Scan() {
		err := emit(strings.TrimSuffix(scanner.Text(), "\n"))
		if err != nil {
			return err
		}
	}

	return errors.Wrap(scanner.Err(), "unable to scan lines")
}

// scanLines is bufio.ScanLines keeping the end of line marker.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i+1], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

func decodeJSON(input []byte, emit emitFn) error {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	for record := 1; ; record++ {
		var v any

		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return errors.Wrapf(ErrMalformedRecord, "json record %d: %v", record, err)
		}

		err = emit(normalize(v))
		if err != nil {
			return err
		}
	}
}

// decodeCSV emits one object per row, keyed by the header row.
func decodeCSV(input []byte, comma rune, emit emitFn) error {
	reader := csv.NewReader(bytes.NewReader(input))
	reader.Comma = comma
	reader.LazyQuotes = comma == '\t'

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}

	if err != nil {
		return errors.Wrapf(ErrMalformedRecord, "header: %v", err)
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return errors.Wrapf(ErrMalformedRecord, "%v", err)
		}

		obj := make(map[string]any, len(header))
		for i, name := range header {
			obj[name] = row[i]
		}

		err = emit(obj)
		if err != nil {
			return err
		}
	}
}

func decodeYAML(ctx context.Context, input []byte, emit emitFn) error {
	dec := yaml.NewDecoder(bytes.NewReader(input))

	for doc := 1; ; doc++ {
		var v any

		err := dec.DecodeContext(ctx, &v)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return errors.Wrapf(ErrMalformedRecord, "yaml document %d: %v", doc, err)
		}

		err = emit(normalize(v))
		if err != nil {
			return err
		}
	}
}

// normalize converts decoded values to the types jq works with.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, e := range val {
			val[k] = normalize(e)
		}

		return val
	case map[any]any:
		obj := make(map[string]any, len(val))
		for k, e := range val {
			key, ok := k.(string)
			if !ok {
				b, _ := json.Marshal(k)
				key = string(b)
			}

			obj[key] = normalize(e)
		}

		return obj
	case []any:
		for i, e := range val {
			val[i] = normalize(e)
		}

		return val
	case int64:
		return int(val)
	case int32:
		return int(val)
	case uint64:
		if val > math.MaxInt {
			return float64(val)
		}

		return int(val)
	case uint32:
		return int(val)
	case uint:
		if val > math.MaxInt {
			return float64(val)
		}

		return int(val)
	case float32:
		return float64(val)
	case json.Number:
		return normalizeNumber(val)
	default:
		return v
	}
}

// normalizeNumber keeps integers exact: int when they fit, *big.Int otherwise.
func normalizeNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		return int(i)
	}

	if !strings.ContainsAny(n.String(), ".eE") {
		if i, ok := new(big.Int).SetString(n.String(), 10); ok {
			return i
		}
	}

	// out of range values come back as +-Inf
	f, _ := n.Float64()

	return f
}
