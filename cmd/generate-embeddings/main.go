package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/perbu/careeradvisor/pkg/config"
	"github.com/perbu/careeradvisor/pkg/embedder"
	"github.com/perbu/careeradvisor/pkg/knowledge"
	"github.com/perbu/careeradvisor/pkg/retrieval"
)

func main() {
	offline := flag.Bool("offline", false, "use the local hash embedder instead of the embeddings API")
	output := flag.String("o", "", "output path (default ADVISOR_INDEX_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	outputPath := cfg.Knowledge.IndexPath
	if *output != "" {
		outputPath = *output
	}

	fmt.Println("Career Advisor Embedding Generation Tool")
	fmt.Println("========================================")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 1: Load knowledge base
	fmt.Println("Step 1: Loading knowledge base...")
	base, err := knowledge.LoadSource(cfg.Knowledge.DataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading knowledge base: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Loaded %d question/answer pairs\n\n", base.Len())

	// Step 2: Initialize embedder
	fmt.Println("Step 2: Initializing embedder...")
	var emb embedder.Embedder
	if *offline {
		emb = embedder.NewHashEmbedder(256)
	} else {
		// Verify API key
		if cfg.Model.APIKey == "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", config.ErrMissingAPIKey)
			fmt.Fprintf(os.Stderr, "Please set it in .env file or environment\n")
			os.Exit(1)
		}
		emb, err = embedder.NewOpenAIEmbedder(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.EmbeddingModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing embedder: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("  ✓ Embedder initialized (%s)\n\n", emb.ModelInfo())

	// Nothing to do when the existing index is current
	if existing, err := retrieval.LoadIndexFile(outputPath); err == nil && existing.Matches(base, emb.ModelInfo()) {
		fmt.Printf("✓ %s is up to date, nothing to do.\n", outputPath)
		return
	}

	// Step 3: Generate embeddings
	fmt.Println("Step 3: Generating embeddings...")
	data, err := retrieval.Build(ctx, base, emb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating embeddings: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  ✓ Generated %d embeddings (dim=%d)\n\n", len(data.Embeddings), data.Dimension)

	// Step 4: Save to index file
	fmt.Println("Step 4: Saving index...")
	if err := retrieval.SaveIndexFile(outputPath, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving index: %v\n", err)
		os.Exit(1)
	}

	// Get file size
	if info, err := os.Stat(outputPath); err == nil {
		fmt.Printf("  ✓ Saved to %s (%.2f KB)\n\n", outputPath, float64(info.Size())/1024)
	}

	fmt.Println("Done! The advisor will use this index at startup.")
}
