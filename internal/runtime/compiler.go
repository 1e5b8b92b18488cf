package runtime

import (
	"context"
	"fmt"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/syntax"
)

// ScriptCompiler builds a book from a syntax tree by running a book script.
type ScriptCompiler struct {
	rt     *Runtime
	script string
	source string
}

// NewScriptCompiler loads the book script at scriptPath through rt. The
// script is read once; every Compile call runs the same source.
func NewScriptCompiler(rt *Runtime, scriptPath string) (*ScriptCompiler, error) {
	src, err := rt.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	return &ScriptCompiler{rt: rt, script: scriptPath, source: src}, nil
}

// Compile runs the script over tree and returns the book it records.
func (c *ScriptCompiler) Compile(ctx context.Context, tree *syntax.Tree, text query.TextProvider) (*book.Book, error) {
	b := book.New()
	in := Input{Tree: tree, Text: text, Book: b}
	if err := c.rt.eval(ctx, c.source, c.script, in, nil); err != nil {
		return nil, fmt.Errorf("runtime: compile: %w", err)
	}
	return b, nil
}
