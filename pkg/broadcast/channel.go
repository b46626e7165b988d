// Package broadcast keeps the theme of sibling tabs in sync.
//
// Each theme store opens a Channel and publishes every explicit change on
// it. Other stores on the same channel receive the change and adopt it.
// The sender never receives its own message.
//
// Channels are best-effort and fire-and-forget. Where no broadcast
// capability exists, Noop returns an inert handle.
package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/themes/pkg/theme"
)

// DefaultChannel is the channel base name the remix-themes browser client
// listens on.
const DefaultChannel = "remix-themes"

// ChannelName returns the namespaced channel name for name.
func ChannelName(name string) string {
	return name + "-channel"
}

// Message is one published theme state.
type Message struct {
	Theme     theme.Theme     `json:"theme"`
	DefinedBy theme.DefinedBy `json:"definedBy"`
}

// State returns the message as a theme.State.
func (m Message) State() theme.State {
	return theme.State{Theme: m.Theme, DefinedBy: m.DefinedBy}
}

// FromState converts a theme.State into a Message.
func FromState(s theme.State) Message {
	return Message{Theme: s.Theme, DefinedBy: s.DefinedBy}
}

// Encode returns the JSON wire form.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses a JSON wire message. Unknown themes are errors.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("broadcast: decode message: %w", err)
	}
	if !m.Theme.Valid() {
		return Message{}, fmt.Errorf("broadcast: invalid theme %q", string(m.Theme))
	}
	return m, nil
}

// Channel is one participant's handle on a broadcast channel.
type Channel interface {
	// Send publishes m to every other participant.
	Send(m Message)

	// Subscribe registers listeners until the returned function is called
	// or the channel is closed. onError receives undecodable messages and
	// may be nil.
	Subscribe(onMessage func(Message), onError func(error)) (unsubscribe func())

	// Close leaves the channel. It is idempotent.
	Close()
}

type noop struct{}

// Noop returns an inert Channel.
func Noop() Channel {
	return noop{}
}

func (noop) Send(Message) {}

func (noop) Subscribe(func(Message), func(error)) func() { return func() {} }

func (noop) Close() {}
