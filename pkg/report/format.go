package report

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatSummary = "summary"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatActions = "actions"
)

// Sentinel errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrSchemaViolation   = errors.New("report does not match schema")
)

//go:embed schema.json
var schema []byte

// Options selects how a report is written.
type Options struct {
	Format string
	// Color enables ANSI colors in the action listing.
	Color bool
	// Validate checks JSON output against the embedded schema before
	// writing it.
	Validate bool
}

// Schema returns the JSON schema of the report.
func Schema() []byte { return schema }

// Write renders r to w.
func Write(w io.Writer, r *Report, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, r, opts.Validate)
	case FormatYAML:
		return marshalAndWrite(r, yaml.Marshal, w, "yaml")
	case FormatSummary, "":
		return writeSummary(w, r)
	case FormatActions:
		return writeListing(w, r, opts.Color)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, opts.Format)
	}
}

func writeJSON(w io.Writer, r *Report, validate bool) error {
	encoded, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	if validate {
		if err := Validate(encoded); err != nil {
			return err
		}
	}

	encoded = append(encoded, '\n')

	_, writeErr := w.Write(encoded)
	if writeErr != nil {
		return fmt.Errorf("json write: %w", writeErr)
	}

	return nil
}

// Validate checks a JSON document against the report schema.
func Validate(document []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(document),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(problems, "; "))
}

func marshalAndWrite(data any, marshal func(any) ([]byte, error), writer io.Writer, label string) error {
	encoded, err := marshal(data)
	if err != nil {
		return fmt.Errorf("%s encode: %w", label, err)
	}

	_, writeErr := writer.Write(encoded)
	if writeErr != nil {
		return fmt.Errorf("%s write: %w", label, writeErr)
	}

	return nil
}
