package bendlens

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/config"
	"github.com/jward/bendlens/internal/grammar"
	"github.com/jward/bendlens/internal/grammar/bend"
	"github.com/jward/bendlens/internal/metrics"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/runtime"
	"github.com/jward/bendlens/internal/store"
	"github.com/jward/bendlens/internal/syntax"
	"github.com/jward/bendlens/scripts"
)

// SnapshotCompiler answers every compile with one book loaded from a YAML
// or JSON snapshot, whatever the document text.
type SnapshotCompiler struct {
	book *book.Book
}

// NewSnapshotCompiler loads the book snapshot at path.
func NewSnapshotCompiler(path string) (*SnapshotCompiler, error) {
	b, err := book.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &SnapshotCompiler{book: b}, nil
}

// Compile returns the snapshot.
func (c *SnapshotCompiler) Compile(ctx context.Context, _ *syntax.Tree, _ query.TextProvider) (*book.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.book, nil
}

// NewCompiler picks the book source cfg asks for: a snapshot file, a book
// script on disk, or the embedded script of the configured grammar. It
// returns nil when the grammar has no embedded script and none is set.
func NewCompiler(cfg *config.Config, logger *log.Logger) (Compiler, error) {
	switch {
	case cfg.Book != "":
		return NewSnapshotCompiler(cfg.Book)
	case cfg.BookScript != "" || cfg.Grammar == bend.Name:
		g, err := grammar.Lookup(cfg.Grammar)
		if err != nil {
			return nil, err
		}
		opts := []runtime.RuntimeOption{runtime.WithLogger(logger)}
		path := cfg.BookScript
		if path == "" {
			opts = append(opts, runtime.WithRuntimeFS(scripts.FS))
			path = runtime.BookScriptPath(g.Name())
		}
		return runtime.NewScriptCompiler(runtime.NewRuntime(g, opts...), path)
	}
	return nil, nil
}

// NewFromConfig validates cfg and builds a workspace from it: the grammar,
// the queries, the compiler and, when symbol_store is set, a migrated
// symbol store. The returned close function releases the store.
func NewFromConfig(cfg *config.Config, logger *log.Logger, m *metrics.Metrics) (*Workspace, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	g, err := grammar.Lookup(cfg.Grammar)
	if err != nil {
		return nil, nil, err
	}
	highlights, locals, err := cfg.Queries()
	if err != nil {
		return nil, nil, err
	}
	comp, err := NewCompiler(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("bendlens: compiler: %w", err)
	}
	opts := []Option{WithQueries(highlights, locals), WithLogger(logger), WithMetrics(m)}
	if comp != nil {
		opts = append(opts, WithCompiler(comp))
	}
	a, err := NewAnalyzer(g, opts...)
	if err != nil {
		return nil, nil, err
	}

	wsOpts := []WorkspaceOption{WithWorkers(cfg.Workers)}
	closeFn := func() error { return nil }
	if cfg.SymbolStore != "" {
		s, err := store.NewStore(cfg.SymbolStore)
		if err != nil {
			return nil, nil, fmt.Errorf("bendlens: symbol store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("bendlens: symbol store: %w", err)
		}
		wsOpts = append(wsOpts, WithStore(s))
		closeFn = s.Close
	}
	return NewWorkspace(a, wsOpts...), closeFn, nil
}
