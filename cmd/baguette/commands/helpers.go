package commands

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/baguette-io/baguette-utils/internal/constants"
	"github.com/baguette-io/baguette-utils/pkg/jsonenc"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"
	NotSet       = "(not set)"

	defaultJSONIndent = 2
)

// resolveFormat picks the output format. Without an explicit one, terminals
// get a table and everything else JSON.
func resolveFormat(format string, w io.Writer) (string, error) {
	switch strings.ToLower(format) {
	case "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	case constants.FormatJSON:
		return constants.FormatJSON, nil
	case constants.FormatYAML:
		return constants.FormatYAML, nil
	case constants.FormatTable:
		return constants.FormatTable, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnknownOutputFormat, format)
	}
}

// printEnvelope renders envelope and reports a failed call as an error so the
// process exits non-zero.
func printEnvelope(w io.Writer, envelope *rest.Envelope, format string) error {
	format, err := resolveFormat(format, w)
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := jsonenc.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))
		err = encoder.Encode(envelope)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(defaultJSONIndent)
		err = encoder.Encode(envelope)
	default:
		err = renderEnvelopeTable(w, envelope)
	}

	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	if !envelope.OK() {
		return fmt.Errorf("%w: status %s: %w", constants.ErrCallFailed, envelope.Status, envelope.Error())
	}

	return nil
}

// renderEnvelopeTable shows a list of objects as rows, and anything else as
// property/value pairs.
func renderEnvelopeTable(w io.Writer, envelope *rest.Envelope) error {
	_, _ = fmt.Fprintf(w, "Status: %s\n", envelope.Status)

	var rows []any

	switch result := envelope.Result.(type) {
	case []any:
		rows = result
	case map[string]any:
		if data, ok := result["data"].([]any); ok {
			rows = data
		} else {
			return renderPropertyTable(w, result)
		}
	default:
		return renderPropertyTable(w, map[string]any{"result": result})
	}

	columns, ok := objectColumns(rows)
	if !ok {
		table := tablewriter.NewWriter(w)
		table.Header("Value")

		for _, row := range rows {
			_ = table.Append([]string{formatCell(row)})
		}

		return renderTable(table)
	}

	header := make([]any, len(columns))
	for i, column := range columns {
		header[i] = column
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)

	for _, row := range rows {
		object, _ := row.(map[string]any)
		cells := make([]string, len(columns))

		for i, column := range columns {
			value, present := object[column]
			if !present {
				cells[i] = NotAvailable

				continue
			}

			cells[i] = formatCell(value)
		}

		_ = table.Append(cells)
	}

	return renderTable(table)
}

func renderPropertyTable(w io.Writer, object map[string]any) error {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range keys {
		_ = table.Append([]string{key, formatCell(object[key])})
	}

	return renderTable(table)
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// objectColumns returns the sorted union of keys when every row is an object.
func objectColumns(rows []any) ([]string, bool) {
	if len(rows) == 0 {
		return nil, false
	}

	seen := map[string]struct{}{}

	for _, row := range rows {
		object, ok := row.(map[string]any)
		if !ok {
			return nil, false
		}

		for key := range object {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns, true
}

func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return NotAvailable
	case string:
		return v
	case bool:
		return boolString(v)
	case float64:
		return ftoa(v)
	default:
		data, err := jsonenc.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	}
}

// parseKeyValues splits repeated key=value flags.
func parseKeyValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValue, pair)
		}

		values[key] = value
	}

	return values, nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return NotSet
	}

	return value
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}
