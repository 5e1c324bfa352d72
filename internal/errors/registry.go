package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Hook Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryRender,
		Message:  "Hook called outside component render",
		Detail:   "Hooks take the Scope a component receives and may only be called while that component function is running.",
	},
	"E002": {
		Category: CategoryRender,
		Message:  "Hook order changed",
		Detail:   "A component called its hooks in a different order than on its first render. Hooks must be called unconditionally and in the same order on every render.",
	},
	"E003": {
		Category: CategoryRender,
		Message:  "Store used outside component render",
		Detail:   "UseStore subscribes the rendering component; call it from inside a component function.",
	},
	"E004": {
		Category: CategoryRender,
		Message:  "Invalid child",
		Detail:   "Children must be elements, text, numbers, booleans, nil, slices of those, or functions returning them.",
	},

	// ============================================
	// Render & Commit Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategorySchedule,
		Message:  "Update requested for an unmounted component",
		Detail:   "The component instance has been removed from the tree. Its setters and store subscriptions are inert.",
	},
	"E101": {
		Category: CategoryRender,
		Message:  "Component render failed",
		Detail:   "The component function panicked while rendering. The work-in-progress tree was discarded and nothing was committed.",
	},
	"E102": {
		Category: CategoryHost,
		Message:  "Host node creation failed",
		Detail:   "The host adapter could not create a node for an element. The render pass was discarded.",
	},
	"E103": {
		Category: CategoryHost,
		Message:  "Host mutation failed",
		Detail:   "The host adapter failed while inserting, updating or removing nodes during commit. The commit is not retried.",
	},
	"E104": {
		Category: CategorySchedule,
		Message:  "Invalid render container",
		Detail:   "Render needs a non-nil host node to mount into.",
	},
	"E105": {
		Category: CategorySchedule,
		Message:  "Root already unmounted",
		Detail:   "The root was unmounted and can no longer be updated.",
	},
	"E106": {
		Category: CategoryRender,
		Message:  "Effect failed",
		Detail:   "An effect or effect cleanup panicked. The panic was recovered and the remaining effects still ran.",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No ley.json or ley.yaml was found at the given path.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Unknown demo",
		Detail:   "The requested demo application does not exist.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Inspector server failed",
		Detail:   "The inspector HTTP server stopped with an error.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Demo interaction failed",
		Detail:   "A scripted interaction found no element to act on.",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
