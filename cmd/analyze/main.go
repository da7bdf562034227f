package main

// Analyze a resume locally with the same pipeline the API runs:
//   go run ./cmd/analyze file ./cv.pdf
//   go run ./cmd/analyze url https://example.com/cv.pdf
//   echo "..." | go run ./cmd/analyze text -

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-ingest/internal/bootstrap"
	"resume-ingest/internal/ingest"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/storage/object/local"
	"resume-ingest/internal/shared/telemetry"
)

const textFileName = "resume.txt"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	pretty bool
	debug  bool
	name   string
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "analyze",
		Short:         "Extract a structured profile from a resume",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", true, "indent the JSON output")
	root.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "log pipeline stages to stdout")
	root.PersistentFlags().StringVar(&opts.name, "name", "", "file name reported to the model")

	root.AddCommand(
		&cobra.Command{
			Use:   "file PATH",
			Short: "Analyze a local file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				name := opts.name
				if name == "" {
					name = filepath.Base(args[0])
				}
				return runStored(cmd, opts, name, f)
			},
		},
		&cobra.Command{
			Use:   "url URL",
			Short: "Analyze a document at an http(s) or s3 URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				ctx := commandContext(cmd)
				p := ingest.New(bootstrap.PipelineOptions(ctx, cfg, bootstrap.BuildStore(ctx, cfg)))
				return run(cmd, opts, p, ingest.Request{FileURL: args[0], FileName: opts.name})
			},
		},
		&cobra.Command{
			Use:   "text TEXT|-",
			Short: "Analyze plain text; - reads stdin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var body io.Reader = strings.NewReader(args[0])
				if args[0] == "-" {
					body = cmd.InOrStdin()
				}
				name := opts.name
				if name == "" {
					name = textFileName
				}
				return runStored(cmd, opts, name, body)
			},
		},
	)
	return root
}

// runStored copies body into a scratch local store and analyzes it from
// there, so local files go through the same fetch path as stored uploads.
func runStored(cmd *cobra.Command, opts *options, name string, body io.Reader) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "resume-analyze-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	ctx := commandContext(cmd)
	store := local.New(dir)
	key := filepath.Base(name)
	if _, err := store.Put(ctx, cfg.DefaultBucket, key, body); err != nil {
		return fmt.Errorf("stage document: %w", err)
	}

	p := ingest.New(bootstrap.PipelineOptions(ctx, cfg, store))
	return run(cmd, opts, p, ingest.Request{StoragePath: key, FileName: name})
}

func run(cmd *cobra.Command, opts *options, p *ingest.Pipeline, req ingest.Request) error {
	res, err := p.Run(commandContext(cmd), req)
	var inputErr *ingest.InputError
	if errors.As(err, &inputErr) {
		res = ingest.Rejected(inputErr)
	} else if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return err
	}
	if inputErr != nil {
		return inputErr
	}
	return nil
}

func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if !opts.debug {
		telemetry.SetLogger(nil)
		return cfg, nil
	}
	return cfg, telemetry.Configure(false, true)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
