package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		code    string
		wantMsg string
		wantCat Category
	}{
		{"T001", "useTheme must be used within a ThemeProvider", CategoryUsage},
		{"T011", "Empty theme provided", CategoryValidation},
		{"T012", "Malformed persist request", CategoryValidation},
		{"T020", "Session storage failure", CategoryStorage},
		{"T999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestThemeError_Error(t *testing.T) {
	if got := New("T001").Error(); got != "T001: useTheme must be used within a ThemeProvider" {
		t.Errorf("Error() = %q", got)
	}
	if got := Newf(CategoryConfig, "bad %s", "port").Error(); got != "bad port" {
		t.Errorf("Error() = %q", got)
	}
	cause := stderrors.New("dial tcp: refused")
	if got := New("T020").Wrap(cause).Error(); got != "T020: Session storage failure: dial tcp: refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestThemeError_IsAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("T020").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should see the wrapped cause")
	}
	if !stderrors.Is(err, New("T020")) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New("T001")) {
		t.Error("different codes must not match")
	}

	var te *ThemeError
	if !stderrors.As(err, &te) || te.Code != "T020" {
		t.Error("errors.As should extract the ThemeError")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "T020") != nil {
		t.Error("FromError(nil) should be nil")
	}
	orig := New("T010")
	if FromError(orig, "T020") != orig {
		t.Error("FromError should keep an existing ThemeError")
	}
	wrapped := FromError(stderrors.New("x"), "T020")
	if wrapped.Code != "T020" || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestRegistry(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 || codes[0] != "T001" {
		t.Fatalf("Codes() = %v", codes)
	}
	Register("T099", Template{Category: CategoryUsage, Message: "custom"})
	if tmpl, ok := Lookup("T099"); !ok || tmpl.Message != "custom" {
		t.Errorf("Lookup(T099) = %+v, %v", tmpl, ok)
	}
}

func TestFormat(t *testing.T) {
	out := New("T040").WithDetail("port must be positive").Wrap(stderrors.New("parse error")).Format()
	for _, want := range []string{"ERROR", "T040:", "Invalid configuration", "port must be positive", "cause: parse error", "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}
