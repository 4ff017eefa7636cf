package errors

// template defines a registered error code.
type template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]template{
	// Config errors (E100-E119)
	"E100": {
		Category: CategoryConfig,
		Message:  "configuration file not found",
		Detail:   "No rake.json was found at the given path.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "configuration file is not valid JSON",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "configuration failed validation",
	},

	// Server errors (E120-E139)
	"E120": {
		Category: CategoryServer,
		Message:  "could not bind listen address",
		Detail:   "The configured address is already in use or not bindable on this host.",
	},
	"E121": {
		Category: CategoryStatic,
		Message:  "static root directory is not usable",
		Detail:   "The configured static directory does not exist or is not a directory.",
	},
}
