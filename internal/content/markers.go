package content

import (
	"fmt"
	"strings"
)

// Markers the guess-who model is instructed to emit. Clients only look for
// these substrings; everything else in a reply is display text.
const (
	SuccessMarker = "[[GUESSED]]"
	FailureMarker = "[[GAME_OVER]]"
	RefusalMarker = "[[REFUSED]]"
)

// Apology strings returned in place of a hint or chat reply when the provider fails.
const (
	HintApology = "Sorry, no hint is available right now. Trust your instincts!"
	ChatApology = "Sorry, I lost my train of thought. Please ask that again."
)

// Reply classifies a guess-who model reply by its markers.
type Reply struct {
	Text    string
	Guessed bool
	Over    bool
	Refused bool
}

// ParseReply strips markers from text and reports which were present.
func ParseReply(text string) Reply {
	r := Reply{
		Guessed: strings.Contains(text, SuccessMarker),
		Over:    strings.Contains(text, FailureMarker),
		Refused: strings.Contains(text, RefusalMarker),
	}
	clean := strings.NewReplacer(SuccessMarker, "", FailureMarker, "", RefusalMarker, "").Replace(text)
	r.Text = strings.TrimSpace(clean)
	return r
}

// GuessWhoRules is the system instruction for a guess-who conversation.
func GuessWhoRules(maxQuestions int, language string) string {
	if language == "" {
		language = "English"
	}
	var b strings.Builder
	b.WriteString("You are the host of a \"guess who\" party game. Secretly pick one famous person or fictional character.\n")
	b.WriteString("The players ask questions to work out who it is. Rules:\n")
	fmt.Fprintf(&b, "- Reply in %s, in one or two short sentences.\n", language)
	b.WriteString("- Never answer with a bare yes or no. Start every answer with exactly one of these signs:\n")
	b.WriteString("  🟢 yes, 🔴 no, 🟡 partly or it depends, ⚪ irrelevant or unknown.\n")
	b.WriteString("- Never reveal the name unless the players guess it.\n")
	fmt.Fprintf(&b, "- When the players name the character correctly, congratulate them and include %s.\n", SuccessMarker)
	fmt.Fprintf(&b, "- The players have %d questions. After the last one, reveal the answer and include %s.\n", maxQuestions, FailureMarker)
	fmt.Fprintf(&b, "- If a question is offensive or unsafe, decline politely and include %s.\n", RefusalMarker)
	return b.String()
}
