// Package composer builds the prompt for the language model from a match
// result and turns the model's reply into the assistant's answer.
package composer

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/perbu/careeradvisor/pkg/generator"
	"github.com/perbu/careeradvisor/pkg/retrieval"
)

// FallbackMessage is returned to the user whenever generation fails.
const FallbackMessage = "Maaf, terjadi kesalahan saat mencoba menghasilkan jawaban. Silakan coba lagi nanti."

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Parsed once at package init; reused for every prompt.
var (
	contextTemplate  = template.Must(template.ParseFS(promptFS, "prompts/context.tmpl"))
	fallbackTemplate = template.Must(template.ParseFS(promptFS, "prompts/fallback.tmpl"))
)

type promptData struct {
	Question string
	Context  string
}

// BuildPrompt returns the prompt for query. A Matched result yields the
// advisor prompt grounded on the matched answer; NoMatch yields the apology
// prompt, which carries no knowledge base content.
func BuildPrompt(query string, result retrieval.MatchResult) (string, error) {
	var (
		tmpl *template.Template
		data = promptData{Question: query}
	)

	switch r := result.(type) {
	case retrieval.Matched:
		tmpl = contextTemplate
		data.Context = r.Answer
	case retrieval.NoMatch:
		tmpl = fallbackTemplate
	default:
		return "", fmt.Errorf("composer: unsupported match result %T", result)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return sb.String(), nil
}

// Composer produces the assistant's reply for one query.
type Composer struct {
	generator generator.Generator
	logger    *zap.Logger
}

// New creates a Composer.
func New(gen generator.Generator, logger *zap.Logger) *Composer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{generator: gen, logger: logger}
}

// Compose builds the prompt and asks the generator for a reply. Generation
// errors never reach the caller: they are logged and FallbackMessage is
// returned so the conversation can continue.
func (c *Composer) Compose(ctx context.Context, query string, result retrieval.MatchResult) string {
	prompt, err := BuildPrompt(query, result)
	if err != nil {
		c.logger.Error("building prompt", zap.Error(err))
		return FallbackMessage
	}

	text, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error("generating response", zap.Error(err))
		return FallbackMessage
	}

	return text
}
