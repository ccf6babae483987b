package services

import (
	"fmt"
	"strings"
)

const CareerCounselorPrompt = `You are a professional career counselor with expertise in:
- Career planning and development
- Job search strategies
- Resume and cover letter writing
- Interview preparation
- Skills assessment and development
- Industry insights and trends
- Work-life balance
- Career transitions

Provide helpful, actionable advice. Ask clarifying questions when needed. Be encouraging and supportive while being practical and realistic.`

const (
	// ChatMaxTokens caps the assistant reply length.
	ChatMaxTokens  = 1000
	TitleMaxTokens = 32

	maxTitleWords = 6
	maxTitleChars = 60
)

const titleSystemPrompt = "You name career counseling conversations. Reply with the title only."

// TitlePrompt asks the model for a short title describing the conversation opener.
func TitlePrompt(firstMessage string) string {
	return fmt.Sprintf(
		"Write a title of at most %d words for a conversation that starts with this message:\n\n%s",
		maxTitleWords, firstMessage,
	)
}

func TitleSystemPrompt() string { return titleSystemPrompt }

// SanitizeTitle turns raw model output into a single-line title of at most
// six words and 60 characters. It returns "" when nothing usable remains.
func SanitizeTitle(raw string) string {
	s := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(raw)
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "Title:")
	s = strings.Trim(s, " \"'`*#.")

	words := strings.Fields(s)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	s = strings.Join(words, " ")

	if r := []rune(s); len(r) > maxTitleChars {
		s = strings.TrimSpace(string(r[:maxTitleChars]))
	}
	return s
}
