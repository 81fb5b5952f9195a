package orchestrator

import (
	"strings"

	"github.com/runix-ai/runix/internal/model"
)

// FlattenTranscript renders an ordered message history as labeled lines with
// a trailing "Assistant:" prompt, the input shape for direct completion calls.
func FlattenTranscript(msgs []model.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		label := "User"
		if m.Author == model.AuthorAI {
			label = "Assistant"
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
