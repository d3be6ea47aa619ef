package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ehteshamnasim/aadhaar-api-test-poc-sub000/internal/healer"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Heal a JSONL stream of requests concurrently",
	Long: `Reads one HealRequest per line, heals them with bounded concurrency,
and writes one HealResult per line in input order. Healing invocations are
independent, so concurrency only shares the history record.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "-", `JSONL request file ("-" for stdin)`)
	batchCmd.Flags().StringVar(&batchOutput, "output", "-", `JSONL result file ("-" for stdout)`)
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "maximum parallel healing invocations")
}

func runBatch(cmd *cobra.Command, args []string) error {
	requests, err := readBatchRequests(batchInput)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return fmt.Errorf("no requests in %s", batchInput)
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(len(requests),
		progressbar.OptionSetDescription("healing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results := make([]healer.Result, len(requests))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(batchConcurrency)
	for i, req := range requests {
		g.Go(func() error {
			results[i] = a.engine.Heal(ctx, req)
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	_ = bar.Finish()

	if err := writeBatchResults(batchOutput, results); err != nil {
		return err
	}

	s := a.history.Summary()
	fmt.Fprintf(os.Stderr, "healed %d/%d auto-applied (ratio %.2f, mean confidence %.2f)\n",
		s.AutoApplied, s.TotalAttempts, s.AutoAppliedRatio, s.MeanConfidence)
	return nil
}

func readBatchRequests(path string) ([]healer.Request, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var requests []healer.Request
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var req healer.Request
		if err := json.Unmarshal(text, &req); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return requests, nil
}

func writeBatchResults(path string, results []healer.Result) error {
	var w io.Writer
	if path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r.Wire()); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}
