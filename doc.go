// Package bendlens is the document analysis layer of a Bend language
// server. It keeps each document's text and syntax tree in step, runs
// structural queries over the tree, and turns the results into
// protocol-ready definitions, completion items and semantic tokens.
//
// # Pipeline
//
// Every change to a [Document] goes through the same steps:
//
//  1. The text buffer is updated and the syntax tree is discarded.
//  2. The tree is reparsed on the next request, from the buffer's chunks.
//  3. When the [Analyzer] has a [Compiler], the document's book (its
//     functions, HVM definitions and data types) is rebuilt for the same
//     text version. A book compiled for older text is stale and ignored.
//  4. Requests run the embedded queries against the fresh tree.
//
// # Usage
//
//	a, err := bendlens.NewAnalyzer(bend.New(), bendlens.WithCompiler(c))
//	if err != nil { ... }
//	ws := bendlens.NewWorkspace(a)
//
//	doc := ws.Open(ctx, "file:///main.bend", 1, text)
//	items := doc.Completion(ctx, pos)
//	tokens := doc.SemanticTokens(ctx)
//
// [NewFromConfig] does the same wiring from a config file, adding the
// symbol store behind [Workspace.Symbols].
//
// # Definitions
//
// Completion offers every authoritative definition of the book, regardless
// of the cursor, followed by the local bindings whose scope strictly
// contains the cursor. Without a fresh book only local bindings are offered.
//
// # Semantic tokens
//
// Highlight captures are resolved through the [Legend], an immutable
// mapping from [CaptureName] to protocol token types built once at startup.
// Tokens are sorted by position, deduplicated by start, clipped to their
// first line and delta-encoded.
package bendlens
