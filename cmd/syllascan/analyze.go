package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syllascan/syllascan/analysis"
	"github.com/syllascan/syllascan/config"
	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
)

// analyzeCmd runs a one-shot analysis of local syllabus files. Files are
// loaded into an in-memory store in order, so later files are compared
// against everything before them.
func analyzeCmd() *cobra.Command {
	var (
		configPath string
		noLLM      bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze syllabus files for originality",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), configPath, args, noLLM, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "Skip recommendation seeding")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")

	return cmd
}

func runAnalyze(ctx context.Context, configPath string, paths []string, noLLM, jsonOut bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	store := document.NewMemStore()

	engine, err := analysis.NewEngine(analysis.SimilarityConfig{
		IncludeThreshold: cfg.Similarity.IncludeThreshold,
		MaxMatches:       cfg.Similarity.MaxMatches,
		WindowTokens:     10,
		MaxWindows:       100,
		MaxExcerpts:      5,
		ContextChars:     200,
	})
	if err != nil {
		return fmt.Errorf("similarity config: %w", err)
	}

	var completer analysis.Completer
	if !noLLM {
		completer = llm.NewClient(cfg.Registry(),
			llm.WithRetryConfig(llmRetrySettings(cfg)),
			llm.WithHTTPClient(llmHTTPClient(cfg)))
	}
	service := analysis.NewService(store, engine, completer, slog.Default())

	type fileResult struct {
		File       string                    `json:"file"`
		DocumentID string                    `json:"document_id"`
		Result     *analysis.SimilarityResult `json:"result"`
	}
	var results []fileResult

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		doc := document.NewDocument(title, string(data))
		if err := store.Create(ctx, doc); err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}

		result, err := service.Analyze(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", path, err)
		}

		results = append(results, fileResult{File: path, DocumentID: doc.ID, Result: result})
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		fmt.Printf("%s (%s): risk=%s overall=%d%% matches=%d\n",
			r.File, r.DocumentID, r.Result.RiskLevel, r.Result.Overall, len(r.Result.Matches))
		for _, m := range r.Result.Matches {
			fmt.Printf("  %s: %d%% (%d excerpts)\n", m.OtherDocumentID, m.Score, len(m.Excerpts))
		}
	}
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	return config.NewLoader(slog.Default()).Load()
}

// llmRetrySettings derives the client retry configuration from the llm
// config section.
func llmRetrySettings(cfg *config.Config) llm.RetryConfig {
	retry := llm.DefaultRetryConfig()
	if cfg.LLM.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.LLM.MaxAttempts
	}
	return retry
}

// llmHTTPClient builds an HTTP client honoring the configured request
// timeout.
func llmHTTPClient(cfg *config.Config) *http.Client {
	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = llm.DefaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}
