package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/logging"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/pycode"
	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/testsource"
)

var (
	healRequestPath string
	healTestFile    string
	healTestName    string
	healErrorText   string
	healResponse    string
	healApply       bool
)

var healCmd = &cobra.Command{
	Use:   "heal",
	Short: "Heal one failing test",
	Long: `Runs one healing attempt and prints the result as JSON.

The request comes from --request (a HealRequest JSON file, "-" for stdin) or
is assembled from --test-file/--test/--error/--response. Without --test-file
the test source is resolved from the configured tests directory.`,
	RunE: runHeal,
}

func init() {
	healCmd.Flags().StringVar(&healRequestPath, "request", "", `HealRequest JSON file ("-" for stdin)`)
	healCmd.Flags().StringVar(&healTestFile, "test-file", "", "python file containing the failing test")
	healCmd.Flags().StringVar(&healTestName, "test", "", "name of the failing test function")
	healCmd.Flags().StringVar(&healErrorText, "error", "", "raw failure text")
	healCmd.Flags().StringVar(&healResponse, "response", "", "actual response body as JSON")
	healCmd.Flags().BoolVar(&healApply, "apply", false, "write the healed function back to --test-file when auto-applied")
}

func runHeal(cmd *cobra.Command, args []string) error {
	req, err := assembleRequest()
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.engine.Heal(cmd.Context(), req)

	out, err := json.MarshalIndent(result.Wire(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))

	if healApply {
		return applyHealed(result)
	}
	return nil
}

// assembleRequest builds the HealRequest from whichever input form the
// caller chose.
func assembleRequest() (healer.Request, error) {
	if healRequestPath != "" {
		return readRequest(healRequestPath)
	}

	if healTestName == "" {
		return healer.Request{}, fmt.Errorf("--test is required without --request")
	}
	if healErrorText == "" {
		return healer.Request{}, fmt.Errorf("--error is required without --request")
	}

	req := healer.Request{
		TestName: healTestName,
		Failure:  healer.RequestFailure{ErrorMessage: healErrorText},
	}

	if healTestFile != "" {
		data, err := os.ReadFile(healTestFile)
		if err != nil {
			return healer.Request{}, fmt.Errorf("failed to read test file: %w", err)
		}
		req.TestSource = string(data)
	} else {
		provider, err := testsource.NewDirProvider(cfg.Tests.Dir, logging.New(logger, "testsource"))
		if err != nil {
			return healer.Request{}, fmt.Errorf("failed to index tests dir: %w", err)
		}
		defer provider.Close()

		src, ok := provider.Source(healTestName)
		if !ok {
			return healer.Request{}, fmt.Errorf("test %q not found under %s", healTestName, cfg.Tests.Dir)
		}
		req.TestSource = src
	}

	if healResponse != "" {
		if err := json.Unmarshal([]byte(healResponse), &req.ActualResponse); err != nil {
			return healer.Request{}, fmt.Errorf("failed to parse --response: %w", err)
		}
	}
	return req, nil
}

func readRequest(path string) (healer.Request, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return healer.Request{}, fmt.Errorf("failed to open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req healer.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return healer.Request{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

// applyHealed rewrites the target function inside --test-file. Only
// auto-applied results are written; everything else stays on disk untouched
// for human review.
func applyHealed(result healer.Result) error {
	if healTestFile == "" {
		return fmt.Errorf("--apply requires --test-file")
	}
	if !result.AutoApplied {
		logger.Info("result below auto-apply threshold, file left untouched",
			zap.Float64("confidence", result.Confidence))
		return nil
	}

	data, err := os.ReadFile(healTestFile)
	if err != nil {
		return fmt.Errorf("failed to read test file: %w", err)
	}
	updated, ok := pycode.ReplaceFunction(string(data), result.TestName, result.AfterCode)
	if !ok {
		return fmt.Errorf("test %q not found in %s", result.TestName, healTestFile)
	}
	if err := os.WriteFile(healTestFile, []byte(updated), 0644); err != nil {
		return fmt.Errorf("failed to write healed file: %w", err)
	}

	logger.Info("healed function written",
		zap.String("file", healTestFile),
		zap.String("test", result.TestName))
	return nil
}
