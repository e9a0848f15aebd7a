package classifier

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an e-commerce ranking expert. Carefully analyze both screenshots " +
	"for duplicate products: items whose product image is exactly the same, appearing multiple " +
	"times (the same item from different sellers). Look for identical product photos, not just " +
	"similar names. Count duplicates accurately and evaluate how they impact user experience."

// buildPrompt assembles the user prompt for one judgment request. It is
// pure string assembly so the exact prompt is testable without a client.
func buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Your task has TWO INDEPENDENT parts.\n\n")

	b.WriteString("PART 1 - RANKING QUALITY (determines winner):\n")
	b.WriteString("Evaluate which variant (A or B) produces better product rankings based on:\n")
	fmt.Fprintf(&b, "- Relevance to the search query: %s\n", req.Query)
	b.WriteString("- Product diversity and variety\n")
	b.WriteString("- Quality of the top results\n")
	b.WriteString("- User value (better deals, ratings, popular items first)\n\n")

	b.WriteString("PART 2 - DUPLICATE DETECTION (supplementary information only):\n")
	b.WriteString("Count duplicate products: items with the EXACT SAME product image appearing multiple times.\n")
	b.WriteString("Do NOT count different colors, sizes or models as duplicates.\n\n")

	if len(req.TitlesA) > 0 {
		b.WriteString("Product titles extracted from variant A:\n")
		writeTitles(&b, req.TitlesA)
	}
	if len(req.TitlesB) > 0 {
		b.WriteString("Product titles extracted from variant B:\n")
		writeTitles(&b, req.TitlesB)
	}

	b.WriteString("The first image is variant A, the second is variant B.\n\n")
	b.WriteString("Return ONLY a valid JSON object:\n")
	b.WriteString(`{
  "winner": "A", "B" or "Tie" (based on ranking quality, NOT duplicates),
  "confidence": <number 0.5-1.0>,
  "score_a": <number 1-10>,
  "score_b": <number 1-10>,
  "reasoning": "why this variant ranks better (ignore duplicates here)",
  "key_differences": "main ranking quality difference",
  "duplicates_in_a": <count of duplicate-image products in the first 8 of A>,
  "duplicates_in_b": <count of duplicate-image products in the first 8 of B>,
  "unique_products_a": <count of unique-image products in the first 8 of A>,
  "unique_products_b": <count of unique-image products in the first 8 of B>,
  "duplicate_notes": "brief note about duplicate patterns observed"
}`)

	return b.String()
}

func writeTitles(b *strings.Builder, titles []string) {
	for i, t := range titles {
		fmt.Fprintf(b, "%d. %s\n", i+1, t)
	}
	b.WriteString("\n")
}
