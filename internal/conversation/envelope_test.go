package conversation

import (
	"encoding/json"
	"testing"
)

func TestChatRequest_CarriesContextAndTurns(t *testing.T) {
	ctx := Context{
		SelectedText: "mitochondria",
		Paragraph:    "The mitochondria is the powerhouse of the cell.",
		Heading:      "Organelles",
		PageTitle:    "Cell Biology 101",
		PageDomain:   "example.edu",
	}
	turns := []Turn{
		{Role: RoleUser, Content: "Give me an example"},
		{Role: RoleAssistant, Content: "Muscle cells have many."},
	}

	req := ChatRequest("popup-7", turns, ctx)

	if req.Action != ActionChat {
		t.Errorf("Action = %q, want %q", req.Action, ActionChat)
	}
	if req.ConversationID != "popup-7" {
		t.Errorf("ConversationID = %q, want %q", req.ConversationID, "popup-7")
	}
	if got := req.BundleContext(); got != ctx {
		t.Errorf("BundleContext() = %+v, want %+v", got, ctx)
	}
	got := req.Turns()
	if len(got) != 2 || got[1].Content != "Muscle cells have many." {
		t.Errorf("Turns() = %+v", got)
	}
}

func TestResponse_ConversationIDSurvivesWire(t *testing.T) {
	ev := Event{ID: "popup-42", Type: EventChunk, Kind: KindChat, Content: "The mito"}

	data, err := json.Marshal(ev.Response())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if resp.Action != ActionStreamUpdate {
		t.Errorf("Action = %q, want %q", resp.Action, ActionStreamUpdate)
	}
	if back := resp.Event(); back != ev {
		t.Errorf("Event() = %+v, want %+v", back, ev)
	}
}

func TestContext_HasSurroundingText(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want bool
	}{
		{"empty paragraph", Context{SelectedText: "x"}, false},
		{"same as selection", Context{SelectedText: "cell", Paragraph: " cell "}, false},
		{"real paragraph", Context{SelectedText: "cell", Paragraph: "A cell divides."}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.HasSurroundingText(); got != tt.want {
				t.Errorf("HasSurroundingText() = %v, want %v", got, tt.want)
			}
		})
	}
}
