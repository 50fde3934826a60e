package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/perbu/careeradvisor/pkg/chat"
	"github.com/perbu/careeradvisor/pkg/composer"
	"github.com/perbu/careeradvisor/pkg/config"
	"github.com/perbu/careeradvisor/pkg/embedder"
	"github.com/perbu/careeradvisor/pkg/generator"
	"github.com/perbu/careeradvisor/pkg/knowledge"
	"github.com/perbu/careeradvisor/pkg/retrieval"
	"github.com/perbu/careeradvisor/pkg/server"
)

func main() {
	serve := flag.Bool("serve", false, "serve the chat over HTTP instead of the terminal")
	offline := flag.Bool("offline", false, "use the local hash embedder instead of the embeddings API")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: advisor [options] [question]\n\n")
		fmt.Fprintf(os.Stderr, "Without a question an interactive chat is started.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintf(os.Stderr, "Please set it in .env file or environment\n")
		}
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := setup(ctx, cfg, *offline, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *serve:
		if err := server.New(session, logger).ListenAndServe(ctx, cfg.App.HTTPAddr); err != nil {
			logger.Error("http server", zap.Error(err))
			stop()
			_ = logger.Sync()
			os.Exit(1)
		}
	case flag.NArg() > 0:
		os.Exit(ask(ctx, session, strings.Join(flag.Args(), " ")))
	default:
		repl(ctx, session, os.Stdin, os.Stdout)
	}
}

// setup loads the knowledge base and its embeddings once and wires the
// conversation. Any error here is fatal.
func setup(ctx context.Context, cfg *config.Config, offline bool, logger *zap.Logger) (*chat.Session, error) {
	var emb embedder.Embedder
	if offline {
		emb = embedder.NewHashEmbedder(256)
	} else {
		openaiEmb, err := embedder.NewOpenAIEmbedder(cfg.Model.APIKey, cfg.Model.BaseURL, cfg.Model.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("initializing embedder: %w", err)
		}
		emb = openaiEmb
	}

	resources := retrieval.NewResources(func(ctx context.Context) (*retrieval.Index, error) {
		base, err := knowledge.LoadSource(cfg.Knowledge.DataPath)
		if err != nil {
			return nil, err
		}
		return retrieval.LoadOrBuild(ctx, base, emb, cfg.Knowledge.IndexPath, logger)
	})

	// Load eagerly so a bad knowledge source stops the process before any question.
	index, err := resources.Get(ctx)
	if err != nil {
		return nil, err
	}

	gen, err := generator.NewOpenAIGenerator(generator.Config{
		APIKey:      cfg.Model.APIKey,
		BaseURL:     cfg.Model.BaseURL,
		Model:       cfg.Model.ChatModel,
		Temperature: float32(cfg.Model.Temperature),
		MaxTokens:   cfg.Model.MaxTokens,
		Timeout:     cfg.Model.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing generator: %w", err)
	}

	matcher := retrieval.NewMatcher(index, emb,
		retrieval.WithThreshold(cfg.Knowledge.Threshold),
		retrieval.WithLogger(logger))

	return chat.NewSession(matcher, composer.New(gen, logger), logger), nil
}

func ask(ctx context.Context, session *chat.Session, question string) int {
	reply, err := session.Ask(ctx, question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(reply.Text)
	return 0
}

// repl runs the interactive chat until EOF, "exit", or ctx is cancelled.
// Input is read in its own goroutine so an interrupt does not wait for Enter.
func repl(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "🤖 AI Career Advisor for Data Science")
	fmt.Fprintln(out, "Ajukan pertanyaan seputar prospek karir, gaji, skill, dan lainnya di bidang data science di Indonesia!")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "assistant> %s\n\n", chat.Greeting)

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
		fmt.Fprint(out, "Apa pertanyaanmu? > ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return
		case line, ok = <-lines:
		}
		if !ok || ctx.Err() != nil {
			fmt.Fprintln(out)
			return
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return
		}

		fmt.Fprintln(out, "Mencari informasi dan berpikir...")
		reply, err := session.Ask(ctx, question)
		if ctx.Err() != nil {
			// Interrupted mid-turn; the reply is only the apology for the cancelled request.
			fmt.Fprintln(out)
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "\nassistant> %s\n\n", reply.Text)
	}
}
