package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIToken is one decoded semantic token. Line and Char are 0-based, Char
// and Length in UTF-16 code units.
type CLIToken struct {
	Line   int    `json:"line"`
	Char   int    `json:"char"`
	Length int    `json:"length"`
	Type   string `json:"type"`
	Text   string `json:"text"`
}

// CLIDefinition is a JSON-friendly definition.
type CLIDefinition struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Container string `json:"container,omitempty"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLICapture is one query capture.
type CLICapture struct {
	Name      string `json:"name"`
	Pattern   int    `json:"pattern"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
}

// CLISymbol is a workspace symbol.
type CLISymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Container string `json:"container,omitempty"`
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
}

// CLITree is a syntax tree dump.
type CLITree struct {
	File     string `json:"file"`
	Grammar  string `json:"grammar"`
	HasError bool   `json:"has_error"`
	Sexp     string `json:"sexp"`
}

// CLILegend lists the token types in legend order.
type CLILegend struct {
	TokenTypes     []string `json:"token_types"`
	TokenModifiers []string `json:"token_modifiers"`
}
