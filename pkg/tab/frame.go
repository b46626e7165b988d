package tab

import (
	"encoding/json"

	"github.com/vango-dev/themes/pkg/theme"
)

// Frame types.
const (
	FrameHello   = "hello"
	FrameSet     = "set"
	FrameMedia   = "media"
	FrameState   = "state"
	FramePersist = "persist"
	FrameStyle   = "style"
	FrameError   = "error"
)

// Inbound is a frame sent by the browser.
type Inbound struct {
	Type         string  `json:"type"`
	Theme        *string `json:"theme,omitempty"`
	MatchesLight *bool   `json:"matchesLight,omitempty"`
}

// Outbound is a frame sent to the browser.
type Outbound struct {
	Type      string          `json:"type"`
	Theme     theme.Theme     `json:"theme,omitempty"`
	DefinedBy string          `json:"definedBy,omitempty"`
	URL       string          `json:"url,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
	CSS       string          `json:"css,omitempty"`
	Active    bool            `json:"active,omitempty"`
	Message   string          `json:"message,omitempty"`
}

func stateFrame(s theme.State) Outbound {
	return Outbound{Type: FrameState, Theme: s.Theme, DefinedBy: s.DefinedBy.String()}
}
