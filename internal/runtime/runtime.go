// Package runtime embeds a Risor VM that turns a syntax tree into a
// definition book. Scripts see the tree through host functions (query,
// node_text, node_span, node_child, node_kind) and record definitions
// through insert functions (insert_def, insert_hvm_def, insert_adt,
// insert_ctor, insert_field).
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/syntax"
)

// Runtime embeds a Risor VM and provides syntax tree host functions and
// book insert functions to scripts.
type Runtime struct {
	grammar    syntax.Grammar
	scriptsDir string
	fsys       fs.FS
	logger     *log.Logger

	mu      sync.Mutex
	queries map[string]*query.Query
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Also configures the Risor importer to use
// FSImporter for import statement resolution.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithScriptsDir configures the directory scripts are loaded from when no
// fs.FS is set.
func WithScriptsDir(dir string) RuntimeOption {
	return func(r *Runtime) {
		r.scriptsDir = dir
	}
}

// WithLogger sets the logger behind the scripts' log object.
func WithLogger(l *log.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime whose query host function compiles patterns
// against g.
func NewRuntime(g syntax.Grammar, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		grammar: g,
		logger:  log.Default(),
		queries: make(map[string]*query.Query),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Input is what one script run reads and writes.
type Input struct {
	Tree *syntax.Tree
	Text query.TextProvider
	Book *book.Book
}

// RunScript loads and executes a Risor script against in, with all standard
// globals plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, in Input, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, in, extraGlobals)
}

// RunSource executes Risor source code directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, in Input, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", in, extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, in Input, extraGlobals map[string]any) error {
	globals, err := r.buildGlobals(in, label, extraGlobals)
	if err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	// Wire importer so Risor import statements resolve correctly.
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer configured for the Runtime's script source.
// Returns nil if neither fs.FS nor scriptsDir is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code.
// When an fs.FS is configured, uses fs.ReadFile on that filesystem.
// Otherwise, uses os.ReadFile with scriptsDir as the base directory.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// BookScriptPath returns the path to a grammar's book script.
func BookScriptPath(grammar string) string {
	return filepath.Join("book", grammar+".risor")
}

// compile returns the compiled query for pattern, compiling it on first use.
func (r *Runtime) compile(pattern string) (*query.Query, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queries[pattern]; ok {
		return q, nil
	}
	q, err := query.Compile(r.grammar, pattern)
	if err != nil {
		return nil, err
	}
	r.queries[pattern] = q
	return q, nil
}

// buildGlobals constructs the full set of globals exposed to Risor scripts.
func (r *Runtime) buildGlobals(in Input, label string, extra map[string]any) (map[string]any, error) {
	if in.Tree == nil || in.Text == nil || in.Book == nil {
		return nil, errors.New("incomplete input")
	}
	root, err := object.NewProxy(in.Tree.Root())
	if err != nil {
		return nil, fmt.Errorf("proxy root: %w", err)
	}

	globals := map[string]any{
		"root":       root,
		"grammar":    in.Tree.Grammar(),
		"query":      makeQueryFn(r, in.Text),
		"node_text":  makeNodeTextFn(in.Text),
		"node_span":  makeNodeSpanFn(),
		"node_kind":  makeNodeKindFn(),
		"node_child": makeNodeChildFn(),
		"log":        mustProxy(&logObject{logger: r.logger.With("script", label)}),

		// Risor cannot construct Go struct pointers, so these accept maps
		// and build the book entries Go-side.
		"insert_def":     makeInsertDefFn(in.Book, false),
		"insert_hvm_def": makeInsertDefFn(in.Book, true),
		"insert_adt":     makeInsertAdtFn(in.Book),
		"insert_ctor":    makeInsertCtorFn(in.Book),
		"insert_field":   makeInsertFieldFn(in.Book),
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals, nil
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
