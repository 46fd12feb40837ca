package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/itchyny/gojq"
	"github.com/txplain/txplain/client"
	"github.com/urfave/cli/v2"
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Explain a Solana transaction in plain language",
		ArgsUsage: "SIGNATURE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the response, e.g. '.result.fee.usd'",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   2 * time.Minute,
				Usage:   "How long to wait for the analysis",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("transaction signature is required")
			}

			signature := c.Args().Get(0)
			serverURL := c.String("server-url")
			jqFilter := c.String("jq")
			jsonOutput := c.Bool("json")
			timeout := c.Duration("timeout")

			httpClient := &http.Client{Timeout: timeout}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError, // Only errors to stderr
			}))
			cl := client.New(serverURL, httpClient, logger)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			analysis, err := cl.Analyze(ctx, signature)
			if err != nil {
				return fmt.Errorf("failed to analyze transaction: %w", err)
			}

			if jqFilter != "" {
				results, err := applyJQFilter(jqFilter, analysis)
				if err != nil {
					return err
				}
				for _, v := range results {
					if s, ok := v.(string); ok {
						fmt.Println(s)
						continue
					}
					data, err := json.MarshalIndent(v, "", "  ")
					if err != nil {
						return fmt.Errorf("failed to marshal jq result: %w", err)
					}
					fmt.Println(string(data))
				}
				return nil
			}

			if jsonOutput {
				data, err := json.MarshalIndent(analysis, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal analysis: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			printAnalysis(analysis)
			return nil
		},
	}
}

// applyJQFilter compiles and runs a jq expression against the analysis,
// which is round-tripped through JSON so the filter sees the wire shape.
func applyJQFilter(filter string, analysis *client.Analysis) ([]interface{}, error) {
	query, err := gojq.Parse(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}

	var results []interface{}
	iter := code.Run(doc)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

// printAnalysis renders an analysis as human-readable text.
func printAnalysis(analysis *client.Analysis) {
	r := analysis.Result

	fmt.Printf("Transaction: %s\n", r.Signature)
	fmt.Printf("  Status:         %s\n", r.Status)
	fmt.Printf("  Classification: %s\n", r.Classification)
	if r.BlockTime != nil {
		fmt.Printf("  Block Time:     %s\n", r.BlockTime.Format(time.RFC3339))
	}
	fmt.Printf("  Fee:            %s SOL (%s)\n", r.Fee.SOL, r.Fee.USD)

	if len(r.Transfers) > 0 {
		fmt.Printf("\nTransfers:\n")
		for _, tr := range r.Transfers {
			fmt.Printf("  %s %s (%s) %s -> %s\n", tr.Amount, tr.Symbol, tr.USDValue, tr.From, tr.To)
		}
	}

	if len(r.Programs) > 0 {
		fmt.Printf("\nPrograms:\n")
		for _, p := range r.Programs {
			fmt.Printf("  %s\n    %s\n", p.Name, p.Description)
		}
	}

	if len(r.Steps) > 0 {
		fmt.Printf("\nSteps:\n")
		for _, s := range r.Steps {
			fmt.Printf("  %d. %s\n     %s\n", s.Position, s.Title, s.Description)
		}
	}

	fmt.Printf("\nExplanation:\n  %s\n", r.Explanations.Beginner)
	fmt.Printf("\nFor developers:\n  %s\n", r.Explanations.Developer)

	fc := r.FeeComparison
	fmt.Printf("\nFee comparison:\n")
	fmt.Printf("  This network: %s\n", fc.NetworkFeeUSD)
	fmt.Printf("  %s: %s (typical range %s)\n", fc.ReferenceNetwork, fc.ReferenceFeeUSD, fc.ReferenceRange)
	fmt.Printf("  Savings: %s\n", fc.SavingsPercent)
}
