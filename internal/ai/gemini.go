package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"flybot/internal/timex"
)

// GeminiProvider implements Extractor using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	dates  *timex.Recognizer
	now    func() time.Time
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from configuration; modelName defaults to gemini-2.0-flash.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, dates *timex.Recognizer) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	model := client.GenerativeModel(modelName)

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"

	// Extraction wants repeatable output.
	model.SetTemperature(0.1)

	return &GeminiProvider{
		client: client,
		model:  model,
		dates:  dates,
		now:    time.Now,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// Extract asks the model for the intent and booking slots of one utterance.
func (p *GeminiProvider) Extract(ctx context.Context, utterance string) (*Extraction, error) {
	now := p.now()
	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", buildSystemPrompt(now), utterance)

	resp, err := p.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	return decodeIntentResult(responseText.String(), p.dates, now)
}

func decodeIntentResult(raw string, dates *timex.Recognizer, now time.Time) (*Extraction, error) {
	cleanJSON := cleanJSONString(raw)

	var result IntentResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	return result.Extraction(dates, now), nil
}

// buildSystemPrompt constructs the instructions for the AI.
func buildSystemPrompt(now time.Time) string {
	return fmt.Sprintf(`Role: You extract flight booking details for a travel assistant.
Context:
- Today: %s (%s)

RULES:
1. INTENT: "BookFlight" for any request to book, fly or travel; "Greet" for greetings;
   "Cancel" or "Quit" when the user wants to stop; "None" otherwise.
2. LOCATIONS: "origin" is where the user leaves from ("from X"), "destination" where they go ("to X").
   Capitalise city names. A single city with no keyword goes to "destination".
   Places that are not cities served by an airport go to "unsupported_locations" and NOT to origin/destination.
3. DATES: "outbound_date" is the departure, "return_date" the way back. Use TIMEX values:
   - a known day -> "YYYY-MM-DD" resolved against Today ("tomorrow", "in 15 days", "next friday").
   - "next week" -> "YYYY-Www", "this weekend" -> "YYYY-Www-WE", a bare weekday -> "XXXX-WXX-D" (Monday=1),
     a day without year -> "XXXX-MM-DD". Never guess a day the user did not name.
4. BUDGET: "budget" is the amount exactly as written without symbols ("1,500"); "currency" is the plural
   currency name ("Dollars", "Pounds", "Euros") or null.
5. Any field not mentioned MUST be null.

Output JSON Schema:
{
  "intent": "BookFlight" | "Greet" | "Cancel" | "Quit" | "None",
  "origin": "string or null",
  "destination": "string or null",
  "outbound_date": "TIMEX string or null",
  "return_date": "TIMEX string or null",
  "budget": "string or null",
  "currency": "string or null",
  "unsupported_locations": ["string"]
}
`, now.Format("2006-01-02"), now.Weekday())
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
