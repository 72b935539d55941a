package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"docquery/config"
	"docquery/ingest"
	"docquery/llm"
	"docquery/loader"
	"docquery/matching"
	"docquery/matching/option"
	"docquery/qa"
	"docquery/schema"
	"docquery/splitter"
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "ingest":
		ingestCmd(os.Args[2:])
	case "query":
		queryCmd(os.Args[2:])
	case "search":
		searchCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: docquery <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ingest  Embed documents from the source directory into the vector store")
	fmt.Fprintln(os.Stderr, "  query   Ask questions over the ingested documents")
	fmt.Fprintln(os.Stderr, "  search  Show passages matching a query, without generation")
}

func ingestCmd(args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	source := flags.String("source", "", "source directory (overrides config)")
	include := flags.String("include", "", "comma-separated include patterns")
	exclude := flags.String("exclude", "", "comma-separated exclude patterns")
	workers := flags.Int("workers", 0, "concurrent file workers (overrides config)")
	progress := flags.Bool("progress", true, "show ingestion progress")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := loadConfig(*configPath)
	if *source != "" {
		cfg.SourceDirectory = *source
	}
	if *workers > 0 {
		cfg.IngestWorkers = *workers
	}
	if err := os.MkdirAll(cfg.PersistDirectory, 0o755); err != nil {
		log.Fatalf("create persist directory: %v", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	defer func() { _ = store.Close() }()
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init: %v", err)
	}

	var matchOptions []option.Option
	if cfg.MaxFileSize > 0 {
		matchOptions = append(matchOptions, option.WithMaxIngestableSize(cfg.MaxFileSize))
	}
	if *include != "" {
		matchOptions = append(matchOptions, option.WithInclusionPatterns(parseCSV(*include)...))
	}
	if *exclude != "" {
		matchOptions = append(matchOptions, option.WithExclusionPatterns(parseCSV(*exclude)...))
	}

	opts := []ingest.Option{
		ingest.WithCollection(cfg.Collection),
		ingest.WithMatcher(matching.New(matchOptions...)),
	}
	if cfg.IngestWorkers > 0 {
		opts = append(opts, ingest.WithWorkers(cfg.IngestWorkers))
	}
	if *progress {
		opts = append(opts, ingest.WithProgress(func(processed, total int, location string) {
			fmt.Printf("\rProcessing documents: %d/%d", processed, total)
			if processed == total {
				fmt.Println()
			}
		}))
	}

	svc := ingest.New(store, embedder,
		loader.NewRegistry(),
		splitter.NewFactory(cfg.ChunkSize, cfg.ChunkOverlap),
		cfg.PersistDirectory, opts...)

	start := time.Now()
	stats, err := svc.Ingest(ctx, cfg.SourceDirectory)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Printf("Ingest complete in %s: %d files (%d unchanged, %d failed), %d chunks stored, %d stale chunks removed\n",
		time.Since(start).Round(time.Millisecond), stats.Files, stats.Skipped, stats.Failed, stats.Chunks, stats.Removed)
}

func queryCmd(args []string) {
	flags := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	question := flags.String("query", "", "one-shot question (omit for interactive mode)")
	var hideSource, muteStream bool
	flags.BoolVar(&hideSource, "hide-source", false, "do not print source passages")
	flags.BoolVar(&hideSource, "S", false, "alias for --hide-source")
	flags.BoolVar(&muteStream, "mute-stream", false, "do not stream tokens as they arrive")
	flags.BoolVar(&muteStream, "M", false, "alias for --mute-stream")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := loadConfig(*configPath)
	svc, closer, err := buildQA(cfg)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer closer()

	var generateOptions []llm.Option
	if cfg.ModelContextSize > 0 {
		generateOptions = append(generateOptions, llm.WithContextSize(cfg.ModelContextSize))
	}
	if !muteStream {
		generateOptions = append(generateOptions, llm.WithStream(func(chunk string) {
			fmt.Print(chunk)
		}))
	}

	ask := func(q string) {
		answer, err := svc.Ask(ctx, q, generateOptions...)
		if err != nil {
			log.Printf("query: %v", err)
			return
		}
		if muteStream {
			fmt.Println(answer.Text)
		} else {
			fmt.Println()
		}
		if !hideSource {
			printSources(answer.Sources)
		}
		fmt.Printf("\n> Answered in %s\n", answer.Elapsed.Round(time.Millisecond))
	}

	if *question != "" {
		ask(*question)
		return
	}
	runQueryLoop(ctx, os.Stdin, ask)
}

// runQueryLoop reads one question per line until EOF, "exit", or context
// cancellation. Stdin is read on its own goroutine so a canceled context
// ends the loop even while it waits at the prompt.
func runQueryLoop(ctx context.Context, in io.Reader, ask func(string)) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		fmt.Print("\nEnter a query: ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "exit" {
				return
			}
			if line == "" {
				continue
			}
			ask(line)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

func searchCmd(args []string) {
	flags := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := flags.String("config", "", "config yaml (optional)")
	query := flags.String("query", "", "query text (required)")
	limit := flags.Int("limit", 0, "max results (defaults to target source chunks)")
	minScore := flags.Float64("min-score", 0, "drop results below this similarity")
	flags.Parse(args)

	if *query == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := loadConfig(*configPath)
	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("store init: %v", err)
	}
	defer func() { _ = store.Close() }()
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init: %v", err)
	}

	svc := qa.New(store, embedder, nil,
		qa.WithCollection(cfg.Collection),
		qa.WithSourceChunks(cfg.TargetSourceChunks),
		qa.WithMinScore(*minScore))
	docs, err := svc.Search(ctx, *query, *limit)
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	printSources(docs)
}

func printSources(docs []schema.Document) {
	for _, doc := range docs {
		content := doc.PageContent
		if len(content) > 400 {
			content = content[:400] + "..."
		}
		fmt.Printf("\n> Source (score=%.4f): %s\n%s\n", doc.Score, doc.Source(), content)
	}
}

func loadConfig(location string) *config.Config {
	cfg, err := config.Load(location)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func parseCSV(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func startGops() {
	if os.Getenv("DOCQUERY_GOPS") == "" {
		return
	}
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}
