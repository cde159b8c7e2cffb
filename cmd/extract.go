// -- cmd/extract.go --
package cmd

import (
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newExtractCmd creates and configures the `extract` command.
func newExtractCmd() *cobra.Command {
	var (
		provider string
		fromFile bool
		output   string
		pretty   bool
	)

	extractCmd := &cobra.Command{
		Use:   "extract [targets...]",
		Short: "Extracts a structured form schema from URLs or local HTML files",
		Long: `Extracts the form schema (fields, types, labels, options, validation)
from one or more targets. Targets are URLs by default; pass --file to parse
local HTML files without launching a browser. Multiple URL targets are
processed concurrently, each in its own browser session.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			prov := schemas.Provider(provider)
			if !fromFile && !prov.Valid() {
				return fmt.Errorf("unknown provider %q (expected one of %v)", provider, schemas.KnownProviders)
			}

			comps, err := newComponents(appConfig)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			results := make([]*schemas.FormSchema, len(args))
			var mu sync.Mutex
			failures := map[string]error{}

			g, gCtx := errgroup.WithContext(ctx)
			g.SetLimit(3)
			for i, target := range args {
				g.Go(func() error {
					var schema *schemas.FormSchema
					var exErr error
					if fromFile {
						schema, exErr = comps.Extract.ExtractFile(target)
					} else {
						schema, exErr = comps.Extract.ExtractURL(gCtx, target, prov)
					}
					if exErr != nil {
						logger.Error("Extraction failed", zap.String("target", target), zap.Error(exErr))
						mu.Lock()
						failures[target] = exErr
						mu.Unlock()
						// Keep processing the remaining targets.
						return nil
					}
					results[i] = schema
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if len(args) == 1 && results[0] != nil {
				return writeSchema(results[0], output, pretty)
			}
			for i := range args {
				if results[i] == nil {
					continue
				}
				path := output
				if path != "" && len(args) > 1 {
					path = fmt.Sprintf("%s.%d.json", output, i)
				}
				if err := writeSchema(results[i], path, pretty); err != nil {
					return err
				}
			}

			if len(failures) == len(args) {
				return fmt.Errorf("all %d targets failed to extract", len(args))
			}
			for target, exErr := range failures {
				fmt.Fprintf(os.Stderr, "warning: %s: %v\n", target, exErr)
			}
			return nil
		},
	}

	extractCmd.Flags().StringVarP(&provider, "provider", "p", string(schemas.ProviderCustom),
		"form provider: google, typeform, microsoft or custom")
	extractCmd.Flags().BoolVar(&fromFile, "file", false, "treat targets as local HTML file paths")
	extractCmd.Flags().StringVarP(&output, "output", "o", "", "write the schema JSON to a file instead of stdout")
	extractCmd.Flags().BoolVar(&pretty, "pretty", true, "indent the schema JSON output")

	return extractCmd
}

// writeSchema serializes a schema to the output path, or stdout when empty.
func writeSchema(schema *schemas.FormSchema, path string, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(schema, "", "  ")
	} else {
		data, err = json.Marshal(schema)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize schema: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write schema to %q: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(newExtractCmd())
}
