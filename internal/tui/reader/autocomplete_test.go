package reader

import "testing"

func TestAutocompleteState_Update(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVisible bool
		wantCount   int
	}{
		{"empty input", "", false, 0},
		{"question", "what is this", false, 0},
		{"slash only", "/", true, 4},
		{"partial command", "/ex", true, 1},
		{"exact match", "/example", false, 1},
		{"exact match any case", "/WHY", false, 1},
		{"command with space", "/why not", false, 0},
		{"no match", "/xyz", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAutocompleteState()
			a.Update(tt.input)

			if a.Visible() != tt.wantVisible {
				t.Errorf("Visible() = %v, want %v", a.Visible(), tt.wantVisible)
			}
			if len(a.Filtered()) != tt.wantCount {
				t.Errorf("len(Filtered()) = %d, want %d", len(a.Filtered()), tt.wantCount)
			}
		})
	}
}

func TestAutocompleteState_Navigation(t *testing.T) {
	a := NewAutocompleteState()
	a.Update("/")

	for i := 0; i < 10; i++ {
		a.Down()
	}
	if a.Index() != 3 {
		t.Errorf("Down at bottom Index() = %d, want 3", a.Index())
	}
	for i := 0; i < 10; i++ {
		a.Up()
	}
	if a.Index() != 0 {
		t.Errorf("Up at top Index() = %d, want 0", a.Index())
	}
}

func TestAutocompleteState_SelectAndClamp(t *testing.T) {
	a := NewAutocompleteState()
	a.Update("/")
	a.Down()
	a.Down()
	a.Down()

	a.Update("/s")
	if a.Index() != 0 {
		t.Errorf("Index after narrowing = %d, want 0", a.Index())
	}
	if got := a.Select(); got != CmdSimplify {
		t.Errorf("Select() = %q, want %q", got, CmdSimplify)
	}

	a.Hide()
	if a.Visible() {
		t.Error("Should not be visible after Hide")
	}
}

func TestLookupCommand(t *testing.T) {
	cmd, ok := LookupCommand("/Simplify")
	if !ok || cmd.Prompt != "Explain in simpler terms" {
		t.Errorf("LookupCommand(/Simplify) = %+v, %v", cmd, ok)
	}
	if cmd, ok := LookupCommand(CmdClose); !ok || cmd.Prompt != "" {
		t.Errorf("LookupCommand(/close) = %+v, %v", cmd, ok)
	}
	if _, ok := LookupCommand("/nope"); ok {
		t.Error("LookupCommand(/nope) found a command")
	}
}
