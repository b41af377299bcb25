package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/baguette-io/baguette-utils/internal/constants"
	"github.com/baguette-io/baguette-utils/pkg/rest"
)

// requestFlags holds the per-call flags.
type requestFlags struct {
	params   []string
	headers  []string
	data     string
	dataFile string
}

func (f *requestFlags) register(cmd *cobra.Command, withBody bool) {
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "extra header as key=value (repeatable)")

	if withBody {
		cmd.Flags().StringVarP(&f.data, "data", "d", "", "request body as JSON")
		cmd.Flags().StringVarP(&f.dataFile, "data-file", "f", "", "read the request body from a JSON or YAML file, - for stdin")
	}
}

// options converts the query and header flags into request options.
func (f *requestFlags) options() ([]rest.RequestOption, error) {
	params, err := parseKeyValues(f.params)
	if err != nil {
		return nil, err
	}

	headers, err := parseKeyValues(f.headers)
	if err != nil {
		return nil, err
	}

	opts := make([]rest.RequestOption, 0, len(params)+len(headers))

	for key, value := range params {
		opts = append(opts, rest.WithParam(key, value))
	}

	for key, value := range headers {
		opts = append(opts, rest.WithHeader(key, value))
	}

	return opts, nil
}

// body decodes --data or --data-file. A nil value means no body was given.
func (f *requestFlags) body(stdin io.Reader) (any, error) {
	if f.data != "" && f.dataFile != "" {
		return nil, constants.ErrDataAndDataFile
	}

	if f.data != "" {
		return decodeBody([]byte(f.data), false)
	}

	if f.dataFile == "" {
		return nil, nil
	}

	var (
		raw []byte
		err error
	)

	if f.dataFile == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(filepath.Clean(f.dataFile))
	}

	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(f.dataFile))

	return decodeBody(raw, ext == ".yml" || ext == ".yaml")
}

func decodeBody(raw []byte, isYAML bool) (any, error) {
	var value any

	if isYAML {
		err := yaml.Unmarshal(raw, &value)
		if err != nil {
			return nil, fmt.Errorf("parsing YAML body: %w", err)
		}

		return value, nil
	}

	err := json.Unmarshal(raw, &value)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON body: %w", err)
	}

	return value, nil
}

// NewRequestCommands creates one command per HTTP verb.
func NewRequestCommands() []*cobra.Command {
	return []*cobra.Command{
		newRequestCommand(rest.MethodGet, "Send a GET request", false),
		newRequestCommand(rest.MethodPost, "Send a POST request with a JSON body", true),
		newRequestCommand(rest.MethodPut, "Send a PUT request with a JSON body", true),
		newRequestCommand(rest.MethodPatch, "Send a PATCH request with a JSON body", true),
		newRequestCommand(rest.MethodDelete, "Send a DELETE request", false),
	}
}

func newRequestCommand(method rest.Method, short string, withBody bool) *cobra.Command {
	flags := &requestFlags{}
	name := strings.ToLower(method.String())

	cmd := &cobra.Command{
		Use:   name + " ENDPOINT",
		Short: short,
		Long: fmt.Sprintf("%s. ENDPOINT is resolved against the configured API base URL and the "+
			"response is printed as an envelope.", short),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			data, err := flags.body(cmd.InOrStdin())
			if err != nil {
				return err
			}

			settings := LoadSettings()

			client, cleanup, err := newClient(settings, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()

			var envelope *rest.Envelope

			switch method {
			case rest.MethodPost:
				envelope = client.Post(ctx, args[0], data, opts...)
			case rest.MethodPut:
				envelope = client.Put(ctx, args[0], data, opts...)
			case rest.MethodPatch:
				if data != nil {
					opts = append(opts, rest.WithJSON(data))
				}

				envelope = client.Patch(ctx, args[0], opts...)
			default:
				envelope = client.Request(ctx, method, args[0], opts...)
			}

			return printEnvelope(cmd.OutOrStdout(), envelope, settings.Output)
		},
	}

	flags.register(cmd, withBody)

	return cmd
}

// NewAllCommand creates the command fetching every page of a listing.
func NewAllCommand() *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "all ENDPOINT",
		Short: "Fetch every page of a paginated listing",
		Long: "Walk an offset/limit paginated listing with GET, following meta.next, " +
			"and print the merged data of every page.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			settings := LoadSettings()

			client, cleanup, err := newClient(settings, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			envelope := client.All(cmd.Context(), args[0], opts...)

			return printEnvelope(cmd.OutOrStdout(), envelope, settings.Output)
		},
	}

	flags.register(cmd, false)

	return cmd
}
