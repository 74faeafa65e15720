package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/berean-labs/berean/internal/domain"
)

// ProviderPrice holds USD prices per 1000 input/output tokens.
type ProviderPrice struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

// DefaultPriceTier is applied to providers missing from the table.
const DefaultPriceTier = "default"

var providerPrices = map[string]ProviderPrice{
	"openai": {
		Input:  decimal.RequireFromString("0.0025"),
		Output: decimal.RequireFromString("0.01"),
	},
	"anthropic": {
		Input:  decimal.RequireFromString("0.003"),
		Output: decimal.RequireFromString("0.015"),
	},
	"deepseek": {
		Input:  decimal.RequireFromString("0.00027"),
		Output: decimal.RequireFromString("0.0011"),
	},
	"openrouter": {
		Input:  decimal.RequireFromString("0.001"),
		Output: decimal.RequireFromString("0.002"),
	},
	DefaultPriceTier: {
		Input:  decimal.RequireFromString("0.001"),
		Output: decimal.RequireFromString("0.002"),
	},
}

var perThousand = decimal.NewFromInt(1000)

// CalculateCost estimates the USD cost of one AI request. It is pure and
// deterministic for a fixed price table.
func CalculateCost(provider string, promptTokens, completionTokens int) decimal.Decimal {
	price, ok := providerPrices[strings.ToLower(provider)]
	if !ok {
		price = providerPrices[DefaultPriceTier]
	}
	promptCost := decimal.NewFromInt(int64(promptTokens)).Div(perThousand).Mul(price.Input)
	completionCost := decimal.NewFromInt(int64(completionTokens)).Div(perThousand).Mul(price.Output)
	return promptCost.Add(completionCost)
}

// UsageCost applies CalculateCost to a recorded token usage.
func UsageCost(provider string, usage *domain.TokenUsage) decimal.Decimal {
	if usage == nil {
		return decimal.Zero
	}
	return CalculateCost(provider, usage.PromptTokens, usage.CompletionTokens)
}
