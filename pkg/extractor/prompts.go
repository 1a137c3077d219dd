package extractor

import (
	"fmt"
	"strings"

	"github.com/meeralabs/hivemind-go/pkg/memory"
)

// extractionPrompt asks the classifier for 1-3 structured memory
// signals from a finished exchange. The response is untrusted text and
// is parsed defensively by parseSignals.
func extractionPrompt(ex Exchange) string {
	categories := make([]string, len(memory.Categories))
	for i, c := range memory.Categories {
		categories[i] = string(c)
	}

	return fmt.Sprintf(`Analyze the following conversation and extract important memory signals that should be remembered for future interactions.

User Message: %s

Assistant Response: %s

Extract 1-3 key memory signals. For each signal, provide:
1. A concise summary (1-2 sentences)
2. Category: one of %s
3. Relevant tags

Format as a JSON array:
[
  {
    "content": "memory summary",
    "category": "category",
    "tags": ["tag1", "tag2"]
  }
]

Only extract memories that are:
- About the user's identity, preferences, or important facts
- Emotionally significant
- Relevant for future conversations
- Not already obvious from the conversation

JSON:`, ex.UserMessage, ex.AssistantReply, strings.Join(categories, ", "))
}
