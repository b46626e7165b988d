package mediaquery

import (
	"net/http"
	"strings"

	"github.com/vango-dev/themes/pkg/theme"
)

// ClientHintHeader carries the browser's color scheme preference.
const ClientHintHeader = "Sec-CH-Prefers-Color-Scheme"

// FromClientHint returns a static Query answering the request's
// Sec-CH-Prefers-Color-Scheme hint, or an unavailable one without it.
func FromClientHint(r *http.Request) Query {
	v := strings.Trim(strings.TrimSpace(r.Header.Get(ClientHintHeader)), `"`)
	t, ok := theme.Parse(strings.ToLower(v))
	if !ok {
		return Unavailable()
	}
	return Static(t)
}

// RequestClientHint asks the browser to send the hint on later requests.
func RequestClientHint(w http.ResponseWriter) {
	h := w.Header()
	h.Add("Accept-CH", ClientHintHeader)
	h.Add("Vary", ClientHintHeader)
	h.Add("Critical-CH", ClientHintHeader)
}
