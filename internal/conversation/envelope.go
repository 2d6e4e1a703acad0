package conversation

// Actions carried in Request and Response envelopes.
const (
	ActionGetExplanation = "getExplanation"
	ActionChat           = "chat"
	ActionStreamUpdate   = "streamUpdate"
)

// Message is a role/content pair in a chat Request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is the wire shape of a call into the relay.
type Request struct {
	Action         string    `json:"action"`
	ConversationID ID        `json:"conversationId"`
	Text           string    `json:"text,omitempty"`
	Messages       []Message `json:"messages,omitempty"`
	Context        string    `json:"context,omitempty"`
	NearestHeading string    `json:"nearestHeading,omitempty"`
	PageTitle      string    `json:"pageTitle,omitempty"`
	PageDomain     string    `json:"pageDomain,omitempty"`
	PageURL        string    `json:"pageUrl,omitempty"`
}

// Response is the wire shape of a relay progress update.
type Response struct {
	Action         string    `json:"action"`
	ConversationID ID        `json:"conversationId"`
	Type           EventType `json:"type"`
	MessageType    Kind      `json:"messageType,omitempty"`
	Content        string    `json:"content,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// ExplanationRequest builds the envelope for an initial explanation.
func ExplanationRequest(id ID, c Context) Request {
	return Request{
		Action:         ActionGetExplanation,
		ConversationID: id,
		Text:           c.SelectedText,
		Context:        c.Paragraph,
		NearestHeading: c.Heading,
		PageTitle:      c.PageTitle,
		PageDomain:     c.PageDomain,
		PageURL:        c.PageURL,
	}
}

// ChatRequest builds the envelope for a follow-up turn.
func ChatRequest(id ID, turns []Turn, c Context) Request {
	req := ExplanationRequest(id, c)
	req.Action = ActionChat
	req.Messages = make([]Message, 0, len(turns))
	for _, t := range turns {
		req.Messages = append(req.Messages, Message{Role: t.Role, Content: t.Content})
	}
	return req
}

// BundleContext recovers the context bundle from a request envelope.
func (r Request) BundleContext() Context {
	return Context{
		SelectedText: r.Text,
		Paragraph:    r.Context,
		Heading:      r.NearestHeading,
		PageTitle:    r.PageTitle,
		PageDomain:   r.PageDomain,
		PageURL:      r.PageURL,
	}
}

// Turns recovers the chat turns from a request envelope.
func (r Request) Turns() []Turn {
	turns := make([]Turn, 0, len(r.Messages))
	for _, m := range r.Messages {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// Response converts an event into its wire envelope.
func (e Event) Response() Response {
	return Response{
		Action:         ActionStreamUpdate,
		ConversationID: e.ID,
		Type:           e.Type,
		MessageType:    e.Kind,
		Content:        e.Content,
		Error:          e.Message,
	}
}

// Event converts a wire envelope back into an event.
func (r Response) Event() Event {
	return Event{
		ID:      r.ConversationID,
		Type:    r.Type,
		Kind:    r.MessageType,
		Content: r.Content,
		Message: r.Error,
	}
}
