// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/memora"
	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/ai/openai"
	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/ingestion"
	"github.com/poiesic/memora/reembed"
	"github.com/poiesic/memora/search"
	"github.com/poiesic/memora/storage/badger"
	"github.com/urfave/cli/v2"
)

func vaultFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the vault database directory",
			Value:   "./memora_db",
			EnvVars: []string{"MEMORA_DB"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"MEMORA_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"MEMORA_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "reasoning-model",
			Usage:   "Model used for classification, expansion and synthesis",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"MEMORA_REASONING_MODEL"},
		},
	}
}

func main() {
	// Flags resolve their EnvVars during parsing, so the .env file has to be
	// loaded before the app runs. A missing file is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatal(fmt.Errorf("failed to load .env: %w", err))
	}

	app := &cli.App{
		Name:  "memora",
		Usage: "Personal memory vault with conversational retrieval",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Store a new memory",
				ArgsUsage: "<text>",
				Action:    addCommand,
				Flags: append(vaultFlags(),
					&cli.StringFlag{
						Name:  "image",
						Usage: "Path to an image file to attach",
					},
				),
			},
			{
				Name:      "query",
				Usage:     "Ask a question against the stored memories",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags:     vaultFlags(),
			},
			{
				Name:   "watch",
				Usage:  "Interactive retrieval: reruns the search as you type queries",
				Action: watchCommand,
				Flags: append(vaultFlags(),
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period before a query change triggers a cycle",
						Value: search.DefaultDebounceDelay,
					},
				),
			},
			{
				Name:   "list",
				Usage:  "List stored memories, newest first",
				Action: listCommand,
				Flags: append(vaultFlags(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list memories in this category",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of memories to print (0 for all)",
					},
				),
			},
			{
				Name:   "reembed",
				Usage:  "Recompute embeddings for all stored memories",
				Action: reembedCommand,
				Flags: append(vaultFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiConfig(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithReasoningModel(c.String("reasoning-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return config, nil
}

func openVault(c *cli.Context) (*memora.Vault, error) {
	config, err := aiConfig(c)
	if err != nil {
		return nil, err
	}
	vault, err := memora.OpenVault(c.String("db"), memora.WithAIConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	return vault, nil
}

func addCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	opts := &ingestion.IngestOptions{}
	if imagePath := c.String("image"); imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		opts.ImageB64 = base64.StdEncoding.EncodeToString(data)
		opts.ImageURL = imagePath
	}

	if strings.TrimSpace(text) == "" && opts.ImageB64 == "" {
		return fmt.Errorf("nothing to store: provide memory text or --image")
	}

	vault, err := openVault(c)
	if err != nil {
		return err
	}
	defer vault.Close()

	pipeline, err := vault.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	record, err := pipeline.Ingest(context.Background(), text, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Stored memory %d: %s [%s, importance %d]\n",
		record.Id, record.Title, record.Category, record.Importance)
	for _, alert := range record.PrivacyAlerts {
		fmt.Printf("  privacy: %s\n", alert)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")

	vault, err := openVault(c)
	if err != nil {
		return err
	}
	defer vault.Close()

	retriever, err := vault.NewRetriever()
	if err != nil {
		return err
	}
	defer retriever.Close()

	response := retriever.Retrieve(context.Background(), query)
	printResponse(response)
	return nil
}

func watchCommand(c *cli.Context) error {
	vault, err := openVault(c)
	if err != nil {
		return err
	}
	defer vault.Close()

	retriever, err := vault.NewRetriever(
		search.WithDebounceDelay(c.Duration("debounce")),
		search.WithResponseHandler(func(response *core.QueryResponse) {
			if response.IsThinking {
				fmt.Println("thinking...")
				return
			}
			printResponse(response)
			fmt.Print("> ")
		}),
	)
	if err != nil {
		return err
	}
	defer retriever.Close()

	fmt.Println("Type a query and press enter; empty line lists everything. Ctrl-D exits.")
	fmt.Print("> ")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		retriever.SetQuery(scanner.Text())
	}
	return scanner.Err()
}

func listCommand(c *cli.Context) error {
	vault, err := openVault(c)
	if err != nil {
		return err
	}
	defer vault.Close()

	ctx := context.Background()
	repo := vault.MemoryRepository()

	var records []*core.MemoryRecord
	if category := c.String("category"); category != "" {
		records, err = repo.ListMemoriesByCategory(ctx, core.Category(category))
	} else {
		records, err = repo.ListMemories(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list memories: %w", err)
	}

	if limit := c.Int("limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	for _, record := range records {
		fmt.Printf("%d  %s  [%s]  %s\n",
			record.Id,
			record.Timestamp.Format("2006-01-02 15:04"),
			record.Category,
			record.Title,
		)
		fmt.Printf("    %s\n", record.Summary)
	}
	fmt.Printf("%d memories\n", len(records))
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	config, err := aiConfig(c)
	if err != nil {
		return err
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewMemoryRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", config.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", config.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)
	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func printResponse(response *core.QueryResponse) {
	fmt.Println(response.Answer)
	if len(response.Sources) > 0 {
		fmt.Printf("\nSources (confidence %.2f):\n", response.Confidence)
		for i, source := range response.Sources {
			fmt.Printf("%d: '%s' (%d)[%0.3f]\n", i, source.Record.Title, source.Record.Id, source.Score)
		}
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
