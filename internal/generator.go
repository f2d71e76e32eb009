package internal

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// flatBand is the |change| percentage under which a move counts as flat.
// It doubles as the sentiment threshold.
const flatBand = 0.5

// TextCompleter is the single-shot generation capability behind the
// narrative generator. It is satisfied by langchaingo LLMs and by stubs
// in tests.
type TextCompleter interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

// Generator produces the 1-2 sentence narrative attached to every
// snapshot. Generate never fails: if no backend is configured, or the
// backend errors or returns nothing, it falls back to templated text.
type Generator struct {
	llm    TextCompleter
	logger *zap.SugaredLogger
}

// NewGenerator wires the OpenAI backend when OPENAI_API_KEY is set and
// leaves the generator on its deterministic fallback otherwise.
func NewGenerator(logger *zap.SugaredLogger) *Generator {
	g := &Generator{logger: logger}

	if os.Getenv("OPENAI_API_KEY") == "" {
		logger.Info("no OPENAI_API_KEY configured, narratives use templated text")
		return g
	}

	llm, err := openai.New(openai.WithModel("gpt-3.5-turbo"))
	if err != nil {
		logger.Warnf("could not initialize narrative backend: %v", err)
		return g
	}

	g.llm = llm
	return g
}

// Generate returns a short narrative for a price move. headlines are
// optional context; an empty slice is fine.
func (g *Generator) Generate(ctx context.Context, symbol string, change, price float64, headlines []string) string {
	if g.llm == nil {
		return fallback(symbol, change, price)
	}

	out, err := g.llm.Call(ctx, buildPrompt(symbol, change, price, headlines))
	if err != nil {
		g.logger.Warnf("narrative backend failed for %v: %v", symbol, err)
		return errorFallback(symbol, change, price)
	}

	text := strings.Join(strings.Fields(out), " ")
	if text == "" {
		g.logger.Warnf("narrative backend returned empty text for %v", symbol)
		return errorFallback(symbol, change, price)
	}

	return text
}

// Sentiment derives the coarse label stored on a snapshot from the
// signed percentage change.
func Sentiment(change float64) string {
	switch {
	case change > flatBand:
		return "positive"
	case change < -flatBand:
		return "negative"
	default:
		return "neutral"
	}
}

func buildPrompt(symbol string, change, price float64, headlines []string) string {
	direction := "DOWN"
	if change > 0 {
		direction = "UP"
	}
	absChange := math.Abs(change)

	headlineContext := "No specific headlines."
	if len(headlines) > 0 {
		headlineContext = strings.Join(headlines, "; ")
	}

	var contextNote string
	switch {
	case absChange > 3:
		contextNote = "This is a SIGNIFICANT movement. You MUST reference a specific catalyst (earnings, macro event, or technical break). Use strong verbs."
	case absChange < flatBand:
		contextNote = "This is minimal movement. Acknowledge range-bound trading/consolidation. Do not invent a catalyst."
	default:
		contextNote = "This is moderate movement. Balance attribution with technical context."
	}

	return fmt.Sprintf(`You are a Senior Market Analyst.
STOCK: %s
PRICE: $%.2f
MOVE: %s %.2f%%
HEADLINES: %s
CONTEXT: %s

Task: Write a 2-sentence market narrative (max 45 words).
- Sentence 1 (Attribution): Explain *why* it moved. Cite a headline if relevant. Use specific attribution language ("appears driven by", "following reports of").
- Sentence 2 (Psychology): Describe investor behavior ("taking profits", "buying the dip", "cautious positioning").
- Constraint: NEVER say "general market volatility" unless the move is <0.5%%.`,
		symbol, price, direction, absChange, headlineContext, contextNote)
}

// fallback covers the unconfigured-backend path.
func fallback(symbol string, change, price float64) string {
	switch {
	case math.Abs(change) < flatBand:
		return fmt.Sprintf("%s is trading flat at $%.2f, consolidating near recent levels.", symbol, price)
	case change > 0:
		return fmt.Sprintf("%s gains %.2f%% to $%.2f amid positive market sentiment.", symbol, change, price)
	default:
		return fmt.Sprintf("%s slips %.2f%% to $%.2f on broad sector weakness.", symbol, math.Abs(change), price)
	}
}

// errorFallback covers backend failures. It stays sign-aware so a known
// move never degrades into generic filler.
func errorFallback(symbol string, change, price float64) string {
	switch {
	case math.Abs(change) < flatBand:
		return fmt.Sprintf("%s holds steady at $%.2f in quiet trading.", symbol, price)
	case change > 0:
		return fmt.Sprintf("%s advances %.2f%% to $%.2f.", symbol, change, price)
	default:
		return fmt.Sprintf("%s declines %.2f%% to $%.2f.", symbol, math.Abs(change), price)
	}
}
