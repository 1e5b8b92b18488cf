// Package queries embeds the structural queries the analysis layer runs over
// Bend syntax trees.
package queries

import _ "embed"

// Highlights maps syntax nodes to highlight capture names.
//
//go:embed highlights.scm
var Highlights string

// Locals captures local bindings (@local.definition) and the region they
// are visible in (@local.scope).
//
//go:embed locals.scm
var Locals string
