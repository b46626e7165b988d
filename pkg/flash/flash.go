// Package flash renders the head snippet that prevents a flash of the wrong
// theme.
//
// The snippet always contains a color-scheme meta tag. When the server did
// not know the theme it also contains a small synchronous script that reads
// the OS preference before first paint, marks the root element with it and
// updates the meta tag. Place it in <head> before any stylesheet.
//
//	flash.Render(w, ts.Theme(), flash.Options{
//	    SSRTheme: ts.Theme() != theme.Unset,
//	    Nonce:    cspNonce,
//	})
package flash

import (
	"io"
	"strings"

	"github.com/vango-dev/themes/pkg/mediaquery"
	"github.com/vango-dev/themes/pkg/theme"
)

// Options configures the snippet.
type Options struct {
	// SSRTheme reports whether the server resolved the theme. The bootstrap
	// script is omitted when true.
	SSRTheme bool

	// Nonce is the CSP nonce for the script tag.
	Nonce string
}

// Script is the bootstrap procedure. It must run synchronously, so it is
// never a module script and never deferred.
const Script = `(() => {
  const theme = window.matchMedia(` + `"` + mediaquery.LightQuery + `"` + `).matches
    ? 'light'
    : 'dark';

  const cl = document.documentElement.classList;
  const dataAttr = document.documentElement.dataset.theme;

  if (dataAttr != null) {
    const themeAlreadyApplied = dataAttr === 'light' || dataAttr === 'dark';
    if (!themeAlreadyApplied) {
      document.documentElement.dataset.theme = theme;
    }
  } else {
    const themeAlreadyApplied = cl.contains('light') || cl.contains('dark');
    if (!themeAlreadyApplied) {
      cl.add(theme);
    }
  }

  const meta = document.querySelector('meta[name=color-scheme]');
  if (meta) {
    meta.content = theme === 'light' ? 'light dark' : 'dark light';
  }
})();`

// Render writes the snippet for current to w.
func Render(w io.Writer, current theme.Theme, opts Options) error {
	_, err := io.WriteString(w, HTML(current, opts))
	return err
}

// HTML returns the snippet for current.
func HTML(current theme.Theme, opts Options) string {
	var b strings.Builder
	b.WriteString(`<meta name="color-scheme" content="`)
	b.WriteString(theme.ColorScheme(current))
	b.WriteString(`">`)

	if opts.SSRTheme {
		return b.String()
	}

	b.WriteString("<script")
	if opts.Nonce != "" {
		b.WriteString(` nonce="`)
		b.WriteString(escapeAttr(opts.Nonce))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(Script)
	b.WriteString("</script>")
	return b.String()
}

// RootClass returns the class for the root element, or "" for Unset.
func RootClass(t theme.Theme) string {
	if !t.Valid() {
		return ""
	}
	return string(t)
}

// RootAttrs returns the attribute marking the root element with t, with a
// leading space, as class="dark" or, when dataAttr is set,
// data-theme="dark". For Unset it returns "" so the bootstrap script can
// fill the indicator in. A data-theme attribute is always written when
// dataAttr is set, so the script knows which indicator to use.
func RootAttrs(t theme.Theme, dataAttr bool) string {
	if dataAttr {
		return ` data-theme="` + escapeAttr(RootClass(t)) + `"`
	}
	if !t.Valid() {
		return ""
	}
	return ` class="` + escapeAttr(string(t)) + `"`
}
