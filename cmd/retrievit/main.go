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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
	"github.com/poiesic/retrievit/reindex"
	"github.com/urfave/cli/v2"
)

var embeddingFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "embedding-host",
		Usage: "Embedding service host URL",
		Value: "http://localhost:11434/v1",
	},
	&cli.StringFlag{
		Name:  "embedding-model",
		Usage: "Embedding model name",
		Value: "embeddinggemma",
	},
}

func main() {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}

	app := &cli.App{
		Name:  "retrievit",
		Usage: "Semantic retrieval system for knowledge documents",
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
				Name:      "ingest",
				Usage:     "Ingest a document from a file",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:     "title",
						Usage:    "Document title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Document description",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Resource type (article, pdf, video, transcript)",
						Value: "article",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Document category",
						Value: core.CategoryGeneral,
					},
					&cli.DurationFlag{
						Name:  "segment-delay",
						Usage: "Pause between segment embedding calls",
						Value: 1 * time.Second,
					},
				}, embeddingFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search ingested documents",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict results to a category (plus general)",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of documents to return",
						Value: 5,
					},
				}, embeddingFlags...),
			},
			{
				Name:      "status",
				Usage:     "Show ingestion progress for a document",
				ArgsUsage: "DOCUMENT_ID",
				Action:    statusCommand,
				Flags:     append([]cli.Flag{dbFlag}, embeddingFlags...),
			},
			{
				Name:   "list",
				Usage:  "List all documents",
				Action: listCommand,
				Flags:  append([]cli.Flag{dbFlag}, embeddingFlags...),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and all of its segments",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     append([]cli.Flag{dbFlag}, embeddingFlags...),
			},
			{
				Name:   "reindex",
				Usage:  "Reembed all segments with new embeddings",
				Action: reindexCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of segments to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N segments",
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
				}, embeddingFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDatabase(c *cli.Context) (*retrievit.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := retrievit.NewDatabase(c.String("db"), retrievit.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func parseResourceType(name string) (core.ResourceType, error) {
	switch strings.ToLower(name) {
	case "article":
		return core.ResourceTypeArticle, nil
	case "pdf":
		return core.ResourceTypePDF, nil
	case "video":
		return core.ResourceTypeVideo, nil
	case "transcript":
		return core.ResourceTypeTranscript, nil
	default:
		return 0, fmt.Errorf("unknown resource type %q", name)
	}
}

func parseDocumentID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one document ID argument")
	}
	var id uint64
	if _, err := fmt.Sscanf(c.Args().First(), "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid document ID %q: %w", c.Args().First(), err)
	}
	return core.ID(id), nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}

	resourceType, err := parseResourceType(c.String("type"))
	if err != nil {
		return err
	}

	body, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	config := ingestion.DefaultConfig()
	config.InterSegmentDelay = c.Duration("segment-delay")

	pipeline, err := db.NewIngestionPipeline(ingestion.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	doc := &core.Document{
		Type:        resourceType,
		Title:       c.String("title"),
		Description: c.String("description"),
		Category:    c.String("category"),
		Active:      true,
	}

	submission, err := pipeline.Submit(ctx, doc, string(body))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Printf("Document %d queued (%d segments, ~%v)\n",
		submission.DocumentID, submission.EstimatedSegments,
		submission.EstimatedDuration.Round(time.Second))

	// The pool dies with the process, so block until the queued work lands.
	deadline := time.Now().Add(submission.EstimatedDuration + time.Minute)
	for time.Now().Before(deadline) {
		time.Sleep(500 * time.Millisecond)
		current, err := db.DocumentRepository().GetDocument(ctx, submission.DocumentID)
		if err != nil {
			return err
		}
		if current.Status == core.EmbedStatusCompleted || current.Status == core.EmbedStatusError {
			fmt.Printf("Document %d finished with status %s\n", current.Id, current.Status)
			return nil
		}
	}
	return fmt.Errorf("timed out waiting for document %d", submission.DocumentID)
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}
	query := c.Args().First()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(ctx, query, c.String("category"), c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. [%.3f] %s (id=%d, category=%s)\n",
			i+1, result.Similarity, result.Document.Title,
			result.Document.Id, result.Document.Category)
		content := result.Content
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		fmt.Printf("   %s\n\n", strings.ReplaceAll(content, "\n", "\n   "))
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	doc, err := db.DocumentRepository().GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	progress, err := pipeline.GetProgress(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	fmt.Printf("Document %d: %s\n", doc.Id, doc.Title)
	fmt.Printf("Status:    %s\n", doc.Status)
	fmt.Printf("Segments:  %d total, %d completed, %d errored, %d pending, %d processing\n",
		progress.Total, progress.Completed, progress.Errored, progress.Pending, progress.Processing)
	fmt.Printf("Progress:  %.1f%%\n", progress.Percent)
	if progress.EstimatedRemaining > 0 {
		fmt.Printf("Remaining: ~%v\n", progress.EstimatedRemaining.Round(time.Second))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.DocumentRepository().ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("No documents")
		return nil
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%s\t%s\n", doc.Id, doc.Status, doc.Category, doc.Title)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseDocumentID(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DocumentRepository().DeleteDocuments(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reindexConfig := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	// Validate config
	if reindexConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reindexConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reindexConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := db.NewReindexer(reindexConfig, os.Stderr).Run(ctx); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
