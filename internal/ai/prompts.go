package ai

import (
	"fmt"
	"strings"
)

// BulletSummary is the parsed result of a summarization response.
type BulletSummary struct {
	Summary  []string `json:"summary"`
	HookType string   `json:"hookType"`
}

// BuildBulletsPrompt constructs the summarization prompt for one article.
// Body is optional scraped page text that supplements the RSS description.
func BuildBulletsPrompt(title, description, body string, maxBullets, minWords, maxWords int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"You are a Boston local news summarizer. Create exactly %d concise, concrete bullet points about this article.\n\n",
		maxBullets))

	sb.WriteString("Rules:\n")
	sb.WriteString(fmt.Sprintf("- Each bullet must be %d-%d words max\n", minWords, maxWords))
	sb.WriteString("- Start bullets with action words or \"What/Why/Who/Where\"\n")
	sb.WriteString("- Include specific numbers, names, dates when available\n")
	sb.WriteString("- No clickbait, no \"Find out why\", no teasers\n")
	sb.WriteString("- Focus on LOCAL IMPACT for Boston residents\n")
	sb.WriteString("- Be direct and informative\n\n")

	sb.WriteString(fmt.Sprintf("Article Title: %s\n", title))
	sb.WriteString(fmt.Sprintf("Description: %s\n", truncate(description, 500)))
	if body != "" {
		sb.WriteString(fmt.Sprintf("\nArticle Text:\n%s\n", truncate(body, 3000)))
	}

	sb.WriteString(`
Respond with ONLY a JSON object in this exact format:
{
  "summary": [
    "First concrete fact or what happened",
    "Second specific detail with number/name if available",
    "Third key impact or consequence"
  ],
  "hookType": "LOCAL_IMPACT"
}`)

	return sb.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// CleanJSONResponse strips markdown code fences from JSON responses.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}
	return strings.TrimSpace(response)
}

// ExtractJSON attempts to extract valid JSON from a potentially messy AI response.
// It tries direct parsing first, then strips markdown fences, then finds JSON delimiters.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Try as-is first
	if looksLikeJSON(raw) {
		return raw
	}

	// Strip markdown code fences
	cleaned := CleanJSONResponse(raw)
	if looksLikeJSON(cleaned) {
		return cleaned
	}

	// Find first { and last } for objects
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidate := raw[start : end+1]
			if looksLikeJSON(candidate) {
				return candidate
			}
		}
	}

	// Find first [ and last ] for arrays
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			candidate := raw[start : end+1]
			if looksLikeJSON(candidate) {
				return candidate
			}
		}
	}

	// Return cleaned version as best effort
	return cleaned
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"))
}
