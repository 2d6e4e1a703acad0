package relay

import (
	"fmt"
	"strings"

	"github.com/vstratful/searchthatterm/internal/api"
	"github.com/vstratful/searchthatterm/internal/conversation"
)

const explanationSystemPrompt = `You are a helpful research assistant. When given a term or phrase, provide a clear, concise explanation in 2-3 sentences. Focus on the most essential information.

Use the provided context to give a more relevant, domain-specific explanation. The context includes:
- The webpage title and domain (helps identify the topic/field)
- The section heading (helps understand the specific subtopic)
- Surrounding paragraph text (provides immediate context)

Format your response as:
- Start with a brief definition relevant to the context
- Add one key insight or important detail
- Keep it under 80 words`

const chatSystemPrompt = `You are a knowledgeable research assistant helping someone understand a specific topic. The user initially selected this text: %q

Your role:
- Answer questions thoroughly but concisely
- Use examples when helpful
- If asked to elaborate, provide more detail
- Stay focused on helping them understand the topic
- Be conversational and helpful`

// explanationMessages builds the prompt for a first explanation.
func explanationMessages(c conversation.Context) []api.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Explain this term/phrase: %q", c.SelectedText)

	if c.PageTitle != "" || c.PageDomain != "" {
		sb.WriteString("\n\n**Page Context:**")
		if c.PageTitle != "" {
			fmt.Fprintf(&sb, "\n- Page Title: %q", c.PageTitle)
		}
		if c.PageDomain != "" {
			fmt.Fprintf(&sb, "\n- Domain: %s", c.PageDomain)
		}
	}
	if c.Heading != "" {
		fmt.Fprintf(&sb, "\n- Section: %q", c.Heading)
	}
	if c.HasSurroundingText() {
		fmt.Fprintf(&sb, "\n\n**Surrounding Text:**\n%q", c.Paragraph)
	}

	return []api.Message{
		{Role: "system", Content: explanationSystemPrompt},
		{Role: "user", Content: sb.String()},
	}
}

// chatMessages builds the prompt for a follow-up turn.
func chatMessages(turns []conversation.Turn, c conversation.Context) []api.Message {
	msgs := make([]api.Message, 0, len(turns)+1)
	msgs = append(msgs, api.Message{Role: "system", Content: fmt.Sprintf(chatSystemPrompt, c.SelectedText)})
	for _, t := range turns {
		msgs = append(msgs, api.Message{Role: string(t.Role), Content: t.Content})
	}
	return msgs
}
