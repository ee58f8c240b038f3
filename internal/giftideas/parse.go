package giftideas

import (
	"regexp"
	"strings"
)

var (
	reNumbered = regexp.MustCompile(`^\d+[.)]\s*`)
	reBold     = regexp.MustCompile(`^\*\*[^*]+\*\*`)
	reLabelled = regexp.MustCompile(`^[A-Z][^:]*:\s`)
	reBullet   = regexp.MustCompile(`^[-*•]\s+`)
)

// Parse is a best-effort line classifier over the model's free-text
// response: numbered, bulleted, bold-leading and short capitalized
// lines open a new suggestion, everything else extends the current
// description. When no structure is detected the whole text becomes a
// single raw suggestion, so the result is never empty.
func Parse(text string) []Suggestion {
	var ideas []Suggestion
	var current *Suggestion

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		line = reBullet.ReplaceAllString(line, "")

		if isGiftLine(line) {
			if current != nil && current.Name != "" {
				ideas = append(ideas, *current)
			}
			name, desc := splitGiftLine(line)
			current = &Suggestion{Name: name, Description: desc}
			continue
		}

		if current != nil {
			if current.Description != "" {
				current.Description += " "
			}
			current.Description += line
		}
	}
	if current != nil && current.Name != "" {
		ideas = append(ideas, *current)
	}

	if len(ideas) == 0 {
		return []Suggestion{{
			Name:        "Gift Suggestions",
			Description: strings.TrimSpace(text),
		}}
	}
	return ideas
}

func isGiftLine(line string) bool {
	if reNumbered.MatchString(line) || reBold.MatchString(line) || reLabelled.MatchString(line) {
		return true
	}
	// Short capitalized line with no sentence punctuation reads like a
	// heading.
	return len(line) > 0 && line[0] >= 'A' && line[0] <= 'Z' &&
		len(line) < 100 && !strings.Contains(line, ".")
}

func splitGiftLine(line string) (name, description string) {
	line = reNumbered.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "**", "")
	line = strings.TrimSpace(line)

	if n, d, ok := strings.Cut(line, " - "); ok {
		return strings.TrimSpace(n), strings.TrimSpace(d)
	}
	if n, d, ok := strings.Cut(line, ": "); ok {
		return strings.TrimSpace(n), strings.TrimSpace(d)
	}
	return line, ""
}
