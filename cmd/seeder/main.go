package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/ingestion"
)

type seedDocument struct {
	title    string
	category string
	body     string
}

var samples = []seedDocument{
	{
		title:    "Onboarding a new service",
		category: "engineering",
		body: "Every new service starts from the template repository. The template " +
			"wires structured logging, health endpoints, and the deployment manifest " +
			"so that a fresh service can reach staging on its first day. Register the " +
			"service in the catalog before requesting production credentials. " +
			"Database access goes through the shared connection broker; services " +
			"never hold raw credentials. Once the catalog entry is approved, the " +
			"pipeline provisions dashboards and alert routes automatically.",
	},
	{
		title:    "Incident response basics",
		category: "engineering",
		body: "When an alert fires, the on-call engineer acknowledges it within five " +
			"minutes and opens an incident channel. Severity is assigned by customer " +
			"impact, not by which component is broken. Mitigation always precedes " +
			"diagnosis: roll back first, investigate later. After the incident, the " +
			"retrospective focuses on systems and signals rather than individual " +
			"mistakes. Action items without owners are not action items.",
	},
	{
		title:    "Quarterly pricing overview",
		category: "sales",
		body: "The standard tier is priced per seat with volume discounts starting at " +
			"fifty seats. Enterprise agreements bundle support hours and a dedicated " +
			"success manager. Discounts beyond twenty percent require approval from " +
			"the regional lead. Renewal conversations should start ninety days before " +
			"the contract ends, and expansion proposals belong in the renewal packet, " +
			"not in a separate thread.",
	},
	{
		title:    "Refund and escalation policy",
		category: "support",
		body: "Refunds within thirty days of purchase are processed without approval. " +
			"Beyond thirty days, the request escalates to the billing queue with the " +
			"customer's usage summary attached. Abusive interactions can be ended " +
			"after one warning; transfer the conversation to a lead instead of " +
			"continuing it. Every escalation needs a timeline of what the customer " +
			"already tried, so the next person never asks the customer to repeat themselves.",
	},
	{
		title:    "Working with embedding models",
		category: "research",
		body: "Embedding quality is evaluated on retrieval tasks drawn from our own " +
			"corpus, not on public benchmarks alone. When a new model looks " +
			"promising, reindex a staging copy of the corpus and replay the saved " +
			"query set against it. Compare recall at ten before anything else. Model " +
			"switches are cheap because segments keep their text: a reindex run " +
			"rewrites every vector without touching the sources.",
	},
	{
		title:    "Holiday schedule",
		category: "general",
		body: "The office closes for the last week of December. On-call rotations " +
			"continue through the break with doubled handoff notes. Regional " +
			"holidays are observed locally; meetings that span regions should be " +
			"scheduled against the shared holiday calendar rather than assumed.",
	},
}

var (
	dbPath  = flag.String("db", "./retrievit_db", "path to the database directory")
	srcDir  = flag.String("src", "", "directory of .txt files to ingest instead of the built-in samples")
	delay   = flag.Duration("segment-delay", 100*time.Millisecond, "pause between segment embedding calls")
	timeout = flag.Duration("timeout", 10*time.Minute, "overall deadline for the seeding run")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// documentsFromDir yields one document per .txt file, titled by file name.
func documentsFromDir(dir string) (iter.Seq[seedDocument], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	return func(yield func(seedDocument) bool) {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
				continue
			}
			body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				slog.Warn("skipping unreadable file", "file", entry.Name(), "err", err)
				continue
			}
			doc := seedDocument{
				title:    strings.TrimSuffix(entry.Name(), ".txt"),
				category: core.CategoryGeneral,
				body:     string(body),
			}
			if !yield(doc) {
				return
			}
		}
	}, nil
}

func documentsFromSlice(docs []seedDocument) iter.Seq[seedDocument] {
	return func(yield func(seedDocument) bool) {
		for _, doc := range docs {
			if !yield(doc) {
				return
			}
		}
	}
}

// seed submits every document and waits until each reaches a terminal status.
func seed(ctx context.Context, db *retrievit.Database, pipeline *ingestion.Pipeline, source iter.Seq[seedDocument]) error {
	var pending []core.ID

	for sample := range source {
		doc := &core.Document{
			Type:     core.ResourceTypeArticle,
			Title:    sample.title,
			Category: sample.category,
			Active:   true,
		}
		submission, err := pipeline.Submit(ctx, doc, sample.body)
		if err != nil {
			return err
		}
		slog.Info("queued document", "id", submission.DocumentID, "title", sample.title,
			"segments", submission.EstimatedSegments)
		pending = append(pending, submission.DocumentID)
	}

	for _, id := range pending {
		for {
			doc, err := db.DocumentRepository().GetDocument(ctx, id)
			if err != nil {
				return err
			}
			if doc.Status == core.EmbedStatusCompleted || doc.Status == core.EmbedStatusError {
				slog.Info("document finished", "id", id, "status", doc.Status)
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(250 * time.Millisecond):
			}
		}
	}

	return nil
}

func main() {
	db, err := retrievit.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	config := ingestion.DefaultConfig()
	config.InterSegmentDelay = *delay

	pipeline, err := db.NewIngestionPipeline(ingestion.WithConfig(config))
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Determine source of seed data
	var source iter.Seq[seedDocument]
	if *srcDir != "" {
		source, err = documentsFromDir(*srcDir)
		if err != nil {
			panic(err)
		}
	} else {
		source = documentsFromSlice(samples)
	}

	if err := seed(ctx, db, pipeline, source); err != nil {
		panic(err)
	}
}
