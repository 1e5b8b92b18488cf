package logging

// Field name constants for structured logging.
const (
	FieldError    = "error"
	FieldURI      = "uri"
	FieldPath     = "path"
	FieldGrammar  = "grammar"
	FieldVersion  = "version"
	FieldMethod   = "method"
	FieldDuration = "duration"
	FieldCount    = "count"
	FieldWorkers  = "workers"
	FieldAddr     = "addr"
)
