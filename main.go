package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trustvault/questionnaire/answer"
	"github.com/trustvault/questionnaire/config"
	"github.com/trustvault/questionnaire/database"
	"github.com/trustvault/questionnaire/embeddings"
	"github.com/trustvault/questionnaire/export"
	"github.com/trustvault/questionnaire/llm"
	"github.com/trustvault/questionnaire/pipeline"
	"github.com/trustvault/questionnaire/retrieval"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "parse":
		parseCmd(cfg, logger, os.Args[2:])
	case "answer":
		answerCmd(cfg, logger, os.Args[2:])
	case "export":
		exportCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "sync":
		syncCmd(cfg, logger, os.Args[2:])
	default:
		logger.Error("unknown command", zap.String("command", os.Args[1]))
		printUsage()
		os.Exit(1)
	}
}

func parseCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("parse", flag.ExitOnError)
	file := flags.String("file", "", "path to the questionnaire file")
	mediaType := flags.String("media-type", "", "declared media type (defaults to a guess from the file extension)")
	out := flags.String("out", "", "path to write the parsed QA JSON (defaults to stdout)")
	if err := flags.Parse(args); err != nil {
		fatal(logger, "parse flags", err)
	}
	if *file == "" {
		fatal(logger, "parse", fmt.Errorf("--file is required"))
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fatal(logger, "read questionnaire file", err)
	}

	mt := *mediaType
	if mt == "" {
		mt = mime.TypeByExtension(filepath.Ext(*file))
	}
	if mt == "" {
		fatal(logger, "parse", fmt.Errorf("could not determine media type for %s, pass --media-type", *file))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := llm.NewClient(cfg)
	if err != nil {
		fatal(logger, "llm setup", err)
	}

	svc := pipeline.NewService(client, logger, pipeline.ChunkOptions{
		MaxChunkChars:        cfg.Pipeline.MaxChunkChars,
		MinChunkChars:        cfg.Pipeline.MinChunkChars,
		MaxQuestionsPerChunk: cfg.Pipeline.MaxQuestionsPerChunk,
	}, cfg.Pipeline.Concurrency)

	result, err := svc.Parse(ctx, data, mt, filepath.Base(*file))
	if err != nil {
		fatal(logger, "parse questionnaire", err)
	}

	writeJSON(logger, *out, result)
}

func answerCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("answer", flag.ExitOnError)
	file := flags.String("file", "", "path to a parsed QA JSON file")
	org := flags.String("org", "", "organization id (uuid)")
	out := flags.String("out", "", "path to write the answered QA JSON (defaults to stdout)")
	if err := flags.Parse(args); err != nil {
		fatal(logger, "parse answer flags", err)
	}
	if *file == "" || *org == "" {
		fatal(logger, "answer", fmt.Errorf("--file and --org are required"))
	}

	organizationID, err := uuid.Parse(*org)
	if err != nil {
		fatal(logger, "parse organization id", err)
	}

	var parsed pipeline.ParsedResult
	if err := readJSON(*file, &parsed); err != nil {
		fatal(logger, "read parsed QA file", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal(logger, "postgres connection", err)
	}
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		fatal(logger, "embedder setup", err)
	}
	client, err := llm.NewClient(cfg)
	if err != nil {
		fatal(logger, "llm setup", err)
	}

	store := retrieval.NewPostgresStore(pool, embedder, logger)
	svc := answer.NewService(store, client, logger, cfg.RetrievalLimit, cfg.Pipeline.Concurrency)

	parsed.QuestionsAndAnswers = svc.GenerateAnswers(ctx, parsed.QuestionsAndAnswers, organizationID)
	writeJSON(logger, *out, &parsed)
}

func exportCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	file := flags.String("file", "", "path to a parsed or answered QA JSON file")
	format := flags.String("format", "xlsx", "export format: xlsx, csv, or pdf")
	outDir := flags.String("out-dir", ".", "directory to write the export into")
	if err := flags.Parse(args); err != nil {
		fatal(logger, "parse export flags", err)
	}
	if *file == "" {
		fatal(logger, "export", fmt.Errorf("--file is required"))
	}

	var parsed pipeline.ParsedResult
	if err := readJSON(*file, &parsed); err != nil {
		fatal(logger, "read QA file", err)
	}

	rendered, err := export.Render(parsed.QuestionsAndAnswers, export.Format(*format), parsed.VendorName)
	if err != nil {
		fatal(logger, "render export", err)
	}

	dest := filepath.Join(*outDir, rendered.Filename)
	if err := os.WriteFile(dest, rendered.Data, 0o644); err != nil {
		fatal(logger, "write export file", err)
	}
	logger.Info("export written",
		zap.String("path", dest),
		zap.String("mimeType", rendered.MimeType),
		zap.Int("questions", len(parsed.QuestionsAndAnswers)))
}

func ingestCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := flags.String("file", "", "path to a knowledge-base document (pdf, markdown, or plain text)")
	org := flags.String("org", "", "organization id (uuid)")
	mediaType := flags.String("media-type", "", "declared media type (defaults to a guess from the file extension)")
	if err := flags.Parse(args); err != nil {
		fatal(logger, "parse ingest flags", err)
	}
	if *file == "" || *org == "" {
		fatal(logger, "ingest", fmt.Errorf("--file and --org are required"))
	}

	organizationID, err := uuid.Parse(*org)
	if err != nil {
		fatal(logger, "parse organization id", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fatal(logger, "read corpus document", err)
	}

	mt := *mediaType
	if mt == "" {
		mt = mime.TypeByExtension(filepath.Ext(*file))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal(logger, "postgres connection", err)
	}
	defer pool.Close()

	if err := database.EnsureSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
		fatal(logger, "ensure schema", err)
	}

	indexer := retrieval.NewIndexer(pool, logger)
	chunks, err := indexer.IngestDocument(ctx, organizationID, filepath.Base(*file), data, mt)
	if err != nil {
		fatal(logger, "ingest corpus document", err)
	}
	logger.Info("corpus document ingested",
		zap.String("file", *file),
		zap.Int("chunks", chunks))
}

func syncCmd(cfg config.Config, logger *zap.Logger, args []string) {
	flags := flag.NewFlagSet("sync", flag.ExitOnError)
	org := flags.String("org", "", "organization id (uuid)")
	if err := flags.Parse(args); err != nil {
		fatal(logger, "parse sync flags", err)
	}
	if *org == "" {
		fatal(logger, "sync", fmt.Errorf("--org is required"))
	}

	organizationID, err := uuid.Parse(*org)
	if err != nil {
		fatal(logger, "parse organization id", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		fatal(logger, "postgres connection", err)
	}
	defer pool.Close()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		fatal(logger, "embedder setup", err)
	}

	store := retrieval.NewPostgresStore(pool, embedder, logger)
	if err := store.SyncEmbeddings(ctx, organizationID); err != nil {
		fatal(logger, "sync embeddings", err)
	}
	logger.Info("embedding index synced", zap.String("organizationID", organizationID.String()))
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(logger *zap.Logger, path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(logger, "encode result", err)
	}
	data = append(data, '\n')

	if path == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatal(logger, "write result", err)
	}
}

func fatal(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: questionnaire <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  parse    Extract the question/answer structure of a questionnaire file")
	fmt.Println("  answer   Generate grounded answers for every unanswered question")
	fmt.Println("  export   Render an answered questionnaire as xlsx, csv, or pdf")
	fmt.Println("  ingest   Load a knowledge-base document into the organization corpus")
	fmt.Println("  sync     Refresh the organization's embedding index")
}
