package observability

import (
	"strconv"
	"strings"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// Gemini 2.5 Flash Image pricing
	geminiFlashImageInputPrice = 0.0003
	geminiFlashImagePerImage   = 0.039

	// gpt-image-1 pricing (medium quality, 1024x1024)
	gptImage1InputPrice = 0.01
	gptImage1PerImage   = 0.042
)

// ModelPricing contains input pricing per 1K tokens and a flat price per output image
type ModelPricing struct {
	InputPricePer1K float64 // Price per 1K input tokens in USD
	PricePerImage   float64 // Price per generated image in USD
}

// PricingTable contains pricing for the supported image models
var PricingTable = map[string]ModelPricing{
	"gemini-2.5-flash-image": {
		InputPricePer1K: geminiFlashImageInputPrice,
		PricePerImage:   geminiFlashImagePerImage,
	},
	"gpt-image-1": {
		InputPricePer1K: gptImage1InputPrice,
		PricePerImage:   gptImage1PerImage,
	},
}

// CalculateImageCost calculates the cost in USD of a generation call
func CalculateImageCost(model string, inputTokens, images int) float64 {
	pricing, exists := lookupPricing(model)
	if !exists {
		pricing = PricingTable["gemini-2.5-flash-image"]
	}

	inputCost := (float64(inputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	imageCost := float64(images) * pricing.PricePerImage
	return inputCost + imageCost
}

// lookupPricing matches exact names first, then dated or preview variants by prefix
func lookupPricing(model string) (ModelPricing, bool) {
	if pricing, ok := PricingTable[model]; ok {
		return pricing, true
	}
	for name, pricing := range PricingTable {
		if strings.HasPrefix(model, name) {
			return pricing, true
		}
	}
	return ModelPricing{}, false
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + formatFloat(cost, costFormatPrecision)
}

func formatFloat(f float64, precision int) string {
	return strconv.FormatFloat(f, 'f', precision, 64)
}
