package theme

import (
	"encoding/json"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"light", true},
		{"dark", true},
		{"", false},
		{"Light", false},
		{"DARK", false},
		{" dark", false},
		{"dark ", false},
		{"system", false},
		{"null", false},
		{"lightdark", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.value); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	if got, ok := Parse("dark"); !ok || got != Dark {
		t.Errorf("Parse(dark) = %v, %v", got, ok)
	}
	if got, ok := Parse("blue"); ok || got != Unset {
		t.Errorf("Parse(blue) = %v, %v; want unset, false", got, ok)
	}
}

func TestThemesReturnsCopy(t *testing.T) {
	list := Themes()
	if len(list) != 2 {
		t.Fatalf("len(Themes()) = %d, want 2", len(list))
	}
	list[0] = "mutated"
	if Themes()[0] != Dark {
		t.Error("Themes() must return a copy")
	}
}

func TestOppositeAndMatchesLight(t *testing.T) {
	if Dark.Opposite() != Light || Light.Opposite() != Dark {
		t.Error("Opposite mismatch")
	}
	if Unset.Opposite() != Unset {
		t.Error("Unset.Opposite() should stay unset")
	}
	if FromMatchesLight(true) != Light || FromMatchesLight(false) != Dark {
		t.Error("FromMatchesLight mismatch")
	}
}

func TestColorScheme(t *testing.T) {
	if got := ColorScheme(Light); got != "light dark" {
		t.Errorf("ColorScheme(light) = %q", got)
	}
	if got := ColorScheme(Dark); got != "dark light" {
		t.Errorf("ColorScheme(dark) = %q", got)
	}
	if got := ColorScheme(Unset); got != "dark light" {
		t.Errorf("ColorScheme(unset) = %q", got)
	}
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(State{Theme: Dark, DefinedBy: User})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"theme":"dark","definedBy":"USER"}` {
		t.Errorf("Marshal = %s", data)
	}

	var s State
	if err := json.Unmarshal([]byte(`{"theme":"light","definedBy":"SYSTEM"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.Theme != Light || s.DefinedBy != System {
		t.Errorf("Unmarshal = %v", s)
	}

	if err := json.Unmarshal([]byte(`{"theme":"light","definedBy":"OS"}`), &s); err == nil {
		t.Error("expected error for unknown definedBy")
	}
}

func TestStateString(t *testing.T) {
	if got := (State{Theme: Unset, DefinedBy: System}).String(); got != "(unset, SYSTEM)" {
		t.Errorf("String() = %q", got)
	}
}
