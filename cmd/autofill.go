// -- cmd/autofill.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formpilot/formpilot-cli/api/schemas"
	"github.com/formpilot/formpilot-cli/internal/autofill"
	"github.com/formpilot/formpilot-cli/internal/observability"
)

// newAutofillCmd creates and configures the `autofill` command.
func newAutofillCmd() *cobra.Command {
	var (
		url           string
		schemaPath    string
		responsesPath string
		verify        bool
	)

	autofillCmd := &cobra.Command{
		Use:   "autofill",
		Short: "Fills a live form with responses matched against an extracted schema",
		Long: `Navigates to the form URL and fills every field that has a valid
response, accumulating per-field errors instead of aborting. Screenshots and a
structured JSON log of the run are written to the artifact directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			schema, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}
			answers, err := loadAnswers(responsesPath)
			if err != nil {
				return err
			}
			responses := validateAndLog(schema, answers, logger)

			comps, err := newComponents(appConfig)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			result, runErr := comps.Autofill.Autofill(ctx, url, schema, responses)
			printResult(result)
			if runErr != nil {
				return fmt.Errorf("autofill aborted: %w", runErr)
			}

			if verify {
				mismatches, vErr := comps.Autofill.Verify(ctx, url, schema, responses)
				if vErr != nil {
					logger.Warn("Verification pass failed", zap.Error(vErr))
				} else if len(mismatches) > 0 {
					fmt.Println("\nVerification mismatches:")
					for _, m := range mismatches {
						fmt.Println("  -", m)
					}
				} else {
					fmt.Println("\nVerification passed: all text fields hold their expected values.")
				}
			}
			return nil
		},
	}

	autofillCmd.Flags().StringVarP(&url, "url", "u", "", "form URL to fill (required)")
	autofillCmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "path to the extracted schema JSON (required)")
	autofillCmd.Flags().StringVarP(&responsesPath, "responses", "r", "", "path to the responses JSON, a field-id to value map (required)")
	autofillCmd.Flags().BoolVar(&verify, "verify", false, "re-read text fields after filling and report mismatches")
	_ = autofillCmd.MarkFlagRequired("url")
	_ = autofillCmd.MarkFlagRequired("schema")
	_ = autofillCmd.MarkFlagRequired("responses")

	return autofillCmd
}

func loadSchema(path string) (*schemas.FormSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	var schema schemas.FormSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema file %q: %w", path, err)
	}
	return &schema, nil
}

func loadAnswers(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses file: %w", err)
	}
	var answers map[string]any
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse responses file %q: %w", path, err)
	}
	return answers, nil
}

func validateAndLog(schema *schemas.FormSchema, answers map[string]any, logger *zap.Logger) []schemas.ResponseEntry {
	responses := autofill.ValidateResponses(schema, answers)
	invalid := 0
	for _, r := range responses {
		if !r.Valid {
			invalid++
		}
	}
	logger.Info("Responses validated",
		zap.Int("total", len(responses)),
		zap.Int("invalid", invalid))
	return responses
}

func printResult(result *schemas.AutofillResult) {
	if result == nil {
		return
	}
	fmt.Printf("\nStatus: %s\n", result.Status)
	fmt.Printf("Filled fields (%d):\n", len(result.FilledFields))
	for _, f := range result.FilledFields {
		fmt.Println("  -", f)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("Errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Println("  -", e)
		}
	}
	if result.LogFile != "" {
		fmt.Println("Log file:", result.LogFile)
	}
}

func init() {
	rootCmd.AddCommand(newAutofillCmd())
}
