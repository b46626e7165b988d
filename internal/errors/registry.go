package errors

import "sort"

// Template describes a registered error code.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

var registry = map[string]Template{
	// Usage (T001-T009)
	"T001": {
		Category:   CategoryUsage,
		Message:    "useTheme must be used within a ThemeProvider",
		Detail:     "The theme accessor was called with a context that carries no theme store.",
		Suggestion: "Wrap the request or tab context with store.NewContext before rendering.",
	},
	"T002": {
		Category: CategoryUsage,
		Message:  "Theme store is closed",
		Detail:   "The store was torn down and no longer reacts to events.",
	},

	// Validation (T010-T019)
	"T010": {
		Category: CategoryValidation,
		Message:  "Invalid theme",
		Detail:   "Only \"light\" and \"dark\" are valid theme values.",
	},
	"T011": {
		Category: CategoryValidation,
		Message:  "Empty theme provided",
	},
	"T012": {
		Category: CategoryValidation,
		Message:  "Malformed persist request",
		Detail:   "The request body could not be read or decoded. The session was left alone.",
	},

	// Storage (T020-T029)
	"T020": {
		Category: CategoryStorage,
		Message:  "Session storage failure",
		Detail:   "The session store could not load, commit or destroy the theme session.",
	},

	// Transport (T030-T039)
	"T030": {
		Category: CategoryTransport,
		Message:  "Theme persistence request failed",
		Detail:   "The persist action could not be reached. The local theme is kept.",
	},
	"T031": {
		Category: CategoryTransport,
		Message:  "Malformed broadcast message",
	},

	// Config (T040-T049)
	"T040": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Run `themes config init` to write a default config file.",
	},
	"T041": {
		Category: CategoryConfig,
		Message:  "Unsupported session backend",
	},
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template.
func Register(code string, t Template) {
	registry[code] = t
}
