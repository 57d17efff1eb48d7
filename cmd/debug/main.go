package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/navid-fn/listing-radar/configs"
	"github.com/navid-fn/listing-radar/internal/crawler"
	"github.com/navid-fn/listing-radar/internal/directory"
	"github.com/navid-fn/listing-radar/internal/extractor"
	"github.com/navid-fn/listing-radar/internal/logger"
	"github.com/navid-fn/listing-radar/internal/matcher"
	"github.com/navid-fn/listing-radar/internal/models"
	"github.com/navid-fn/listing-radar/internal/pipeline"
)

// debug runs one poll without touching the store and prints what each stage produced.
// With -message it only tests extraction against the given text.
func main() {
	var (
		transport string
		pattern   string
		message   string
		timeout   time.Duration
	)
	flag.StringVar(&transport, "transport", "", "Listing source: discord, slack, webhook, conditions (default TRANSPORT)")
	flag.StringVar(&pattern, "pattern", "", "Extraction preset or custom regex (default EXTRACT_PATTERN)")
	flag.StringVar(&message, "message", "", "Extract from this text instead of fetching")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	cfg := configs.AppLoad()
	if transport != "" {
		cfg.Transport = strings.ToLower(transport)
	}
	if pattern != "" {
		cfg.ExtractPattern = pattern
	}

	if message != "" {
		os.Exit(extractOnly(cfg, message))
	}

	log := logger.New("warn", "text")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := crawler.NewClient(crawler.DefaultHTTPConfig(cfg.HTTP.RequestsPerSecond, cfg.HTTP.RequestTimeout))

	var loader directory.Loader
	if cfg.DirectoryFile != "" {
		loader = directory.NewFile(cfg.DirectoryFile)
	} else {
		loader = directory.NewSheets(client, cfg.Sheets)
	}
	dir, err := loader.Load(ctx)
	if err != nil {
		fmt.Printf("directory (%s): %v\n", loader.Name(), err)
	}
	fmt.Printf("=== directory: %d exchanges\n", len(dir))
	for name, link := range dir {
		fmt.Printf("  %-20s %s\n", name, link)
	}

	source, err := pipeline.NewSource(cfg, client, log, time.Now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	events, err := source.Listings(ctx)
	if ms, ok := source.(*pipeline.MessageSource); ok {
		fmt.Printf("=== %s: %d messages, pattern %s\n", source.Name(), ms.Fetched(), ms.Extractor.Pattern())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: fetch failed: %v\n", err)
		os.Exit(1)
	}

	printEvents(events)

	matched := matcher.Match(events, dir, nil)
	fmt.Printf("=== matched: %d\n", len(matched))
	for _, a := range matched {
		fmt.Printf("  %s (%s) on %s -> %s\n", a.Coin, a.Ticker, a.Exchange, a.AffiliateURL)
	}
}

func extractOnly(cfg *configs.AppConfig, message string) int {
	p, err := extractor.ResolvePattern(cfg.ExtractPattern, pipeline.PresetFor(cfg.Transport))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	fmt.Printf("pattern: %s\n", p)
	if p.StripMarkup {
		fmt.Printf("stripped: %s\n", extractor.StripMarkup(message))
	}

	events := extractor.New(p, nil).Extract([]string{message})
	printEvents(events)
	if len(events) == 0 {
		return 1
	}
	return 0
}

func printEvents(events []models.ListingEvent) {
	fmt.Printf("=== listings: %d\n", len(events))
	for _, e := range events {
		fmt.Printf("  coin=%q ticker=%q exchange=%q date=%s\n", e.Coin, e.Ticker, e.Exchange, e.DateAdded)
	}
}
