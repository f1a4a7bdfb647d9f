package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/syllascan/syllascan/analysis"
	"github.com/syllascan/syllascan/config"
	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
)

// settleDelay is how long a file must be quiet before ingestion. Editors and
// copies emit several write events per save.
const settleDelay = 500 * time.Millisecond

// watchCmd runs the long-lived ingestion worker: it watches a directory for
// syllabus files, ingests new ones into the NATS-backed store and analyzes
// them against the corpus.
func watchCmd() *cobra.Command {
	var (
		configPath  string
		dir         string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and analyze new syllabus files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(configPath, dir, metricsAddr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to watch (overrides config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address")

	return cmd
}

func runWatch(configPath, dir, metricsAddr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if dir == "" {
		dir = cfg.Watch.Dir
	}
	if dir == "" {
		return fmt.Errorf("no watch directory configured (set --dir or watch.dir)")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	logger := slog.Default()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	nc, js, err := connectNATS(cfg, logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	store, err := document.NewKVStore(ctx, js)
	if err != nil {
		return fmt.Errorf("create document store: %w", err)
	}

	clientOpts := []llm.ClientOption{
		llm.WithLogger(logger),
		llm.WithRetryConfig(llmRetrySettings(cfg)),
		llm.WithHTTPClient(llmHTTPClient(cfg)),
	}
	if cfg.LLM.RecordCalls {
		callStore, err := llm.NewCallStore(ctx, js)
		if err != nil {
			logger.Warn("LLM call recording disabled", "error", err)
		} else {
			clientOpts = append(clientOpts, llm.WithCallStore(callStore))
		}
	}
	client := llm.NewClient(cfg.Registry(), clientOpts...)

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
	service := analysis.NewService(store, engine, client, logger)

	go serveMetrics(ctx, metricsAddr, logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info("Watching for syllabus files",
		"dir", dir,
		"extensions", cfg.Watch.Extensions)

	// One settle timer per path so a burst of writes ingests once. Settled
	// paths come back through a channel so the map stays on this goroutine.
	pending := make(map[string]*time.Timer)
	ingested := make(map[string]string)
	settled := make(chan string, 64)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown complete")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !watchedExtension(event.Name, cfg.Watch.Extensions) {
				continue
			}

			path := event.Name
			if timer, exists := pending[path]; exists {
				timer.Reset(settleDelay)
				continue
			}
			pending[path] = time.AfterFunc(settleDelay, func() {
				select {
				case settled <- path:
				case <-ctx.Done():
				}
			})

		case path := <-settled:
			delete(pending, path)
			if docID, _ := ingestFile(ctx, service, store, path, ingested[path], logger); docID != "" {
				ingested[path] = docID
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "error", err)
		}
	}
}

func connectNATS(cfg *config.Config, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	url := cfg.NATS.URL
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		url = envURL
	}

	logger.Info("Connecting to NATS", "url", url)
	nc, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(cfg.NATS.Timeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return nc, js, nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("Metrics endpoint listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("Metrics server stopped", "error", err)
	}
}

func watchedExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// ingestFile stores the file's current content and analyzes it. A path seen
// before (knownID non-empty) supersedes its existing document rather than
// creating a duplicate corpus entry.
func ingestFile(ctx context.Context, service *analysis.Service, store document.Store, path, knownID string, logger *slog.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read file", "path", path, "error", err)
		return "", err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	docID := knownID
	if knownID != "" {
		doc, err := store.Get(ctx, knownID)
		if err != nil {
			logger.Warn("Previously ingested document missing",
				"path", path, "document_id", knownID, "error", err)
			docID = ""
		} else {
			doc.Title = title
			doc.Text = string(data)
			if err := store.Put(ctx, doc); err != nil {
				logger.Warn("Failed to update document", "path", path, "error", err)
				return "", err
			}
		}
	}
	if docID == "" {
		doc := document.NewDocument(title, string(data))
		if err := store.Create(ctx, doc); err != nil {
			logger.Warn("Failed to store document", "path", path, "error", err)
			return "", err
		}
		docID = doc.ID
	}

	result, err := service.Analyze(ctx, docID)
	if err != nil {
		logger.Error("Analysis failed", "path", path, "document_id", docID, "error", err)
		return docID, err
	}

	logger.Info("Ingested syllabus",
		"path", path,
		"document_id", docID,
		"risk", result.RiskLevel,
		"matches", len(result.Matches))
	return docID, nil
}
