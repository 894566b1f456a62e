package summarizer

import (
	"fmt"

	"github.com/speedread/speedread/internal/feed"
)

// fallback builds a deterministic summary from the entry itself. Used when
// no API key is configured or the AI call fails.
func (s *Summarizer) fallback(entry feed.Entry) Result {
	title := entry.Title
	if title == "" {
		title = "News Update"
	}

	details := feed.Truncate(entry.Description, 50)
	if details == "" {
		details = "Check article for more information"
	}

	return Result{
		Bullets: []string{
			fmt.Sprintf("Update: %s", feed.Truncate(title, 50)),
			fmt.Sprintf("Details: %s", details),
			fmt.Sprintf("Visit %s for complete coverage", s.sourceName),
		},
		HookType: "NEWS_UPDATE",
		Provider: "fallback",
		Fallback: true,
	}
}
