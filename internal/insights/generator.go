// Package insights turns the current ledger into a short narrative via
// the Gemini API. Generation is best effort: a failed call degrades to
// a fixed apology so the stored insight is always readable.
package insights

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"bizbook/internal/core"
)

// FallbackNarrative is stored when the model call fails.
const FallbackNarrative = "I'm sorry, I couldn't analyze the data at this moment. Please check your internet connection and try again."

// Generator produces financial narratives from ledger snapshots.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator builds a Gemini-backed generator. Credentials come from
// the environment (GEMINI_API_KEY or the Vertex variables).
func NewGenerator(ctx context.Context, model string) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

// BuildPrompt renders the analysis request for one ledger snapshot.
func BuildPrompt(transactions []core.Transaction, summary core.FinancialSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following financial data for a business.\n")
	fmt.Fprintf(&b, "Total Revenue: %s\n", summary.TotalRevenue)
	fmt.Fprintf(&b, "Total Expenses: %s\n", summary.TotalExpenses)
	fmt.Fprintf(&b, "Net Profit: %s\n", summary.NetProfit)
	fmt.Fprintf(&b, "Profit Margin: %.2f%%\n\n", summary.ProfitMargin)

	b.WriteString("Transactions:\n")
	for _, t := range transactions {
		fmt.Fprintf(&b, "- %s: %s (%s) - %s\n", t.Date, t.Description, t.Type, t.Amount)
	}

	b.WriteString("\nProvide a professional analysis including:\n")
	b.WriteString("1. A summary of financial health.\n")
	b.WriteString("2. Identification of major spending patterns.\n")
	b.WriteString("3. Three actionable recommendations to increase profit.\n")
	b.WriteString("Return the response in a structured advice format.\n")
	return b.String()
}

// Generate asks the model for a narrative. Errors are swallowed into
// the fallback text together with a non-nil error for the caller to
// log.
func (g *Generator) Generate(ctx context.Context, transactions []core.Transaction, summary core.FinancialSummary) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: BuildPrompt(transactions, summary)},
			},
		},
	}

	temperature := float32(0.7)
	topP := float32(0.9)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
		TopP:        &topP,
	})
	if err != nil {
		return FallbackNarrative, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return FallbackNarrative, fmt.Errorf("empty response from model")
	}
	return text, nil
}
