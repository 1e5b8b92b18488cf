package bendlens

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/metrics"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/syntax"
	"github.com/jward/bendlens/queries"
)

// Compiler produces the book of a document from its syntax tree. The
// script-driven runtime.ScriptCompiler implements it.
type Compiler interface {
	Compile(ctx context.Context, tree *syntax.Tree, text query.TextProvider) (*book.Book, error)
}

// Analyzer holds what every document of a workspace shares: the grammar,
// the compiled queries, the legend and the optional compiler. It is
// immutable after construction and safe for concurrent use.
type Analyzer struct {
	grammar  syntax.Grammar
	legend   *Legend
	tokens   *TokenEncoder
	defs     *DefinitionIndex
	compiler Compiler
	metrics  *metrics.Metrics
	logger   *log.Logger
}

// Option configures an Analyzer.
type Option func(*analyzerConfig)

type analyzerConfig struct {
	highlights string
	locals     string
	legend     *Legend
	compiler   Compiler
	metrics    *metrics.Metrics
	logger     *log.Logger
}

// WithQueries replaces the embedded highlight and locals queries. An empty
// string keeps the embedded query.
func WithQueries(highlights, locals string) Option {
	return func(c *analyzerConfig) {
		if highlights != "" {
			c.highlights = highlights
		}
		if locals != "" {
			c.locals = locals
		}
	}
}

// WithLegend shares an existing legend instead of building a new one.
func WithLegend(l *Legend) Option {
	return func(c *analyzerConfig) {
		c.legend = l
	}
}

// WithCompiler sets the compiler that refreshes a document's book after
// each change. Without one, books only arrive through Document.SetBook.
func WithCompiler(comp Compiler) Option {
	return func(c *analyzerConfig) {
		c.compiler = comp
	}
}

// WithMetrics records parse and query metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *analyzerConfig) {
		c.metrics = m
	}
}

// WithLogger sets the logger. The default is logging.Default().
func WithLogger(l *log.Logger) Option {
	return func(c *analyzerConfig) {
		c.logger = l
	}
}

// NewAnalyzer compiles the queries against g and checks their capture
// names. Any failure is a configuration error.
func NewAnalyzer(g syntax.Grammar, opts ...Option) (*Analyzer, error) {
	cfg := analyzerConfig{highlights: queries.Highlights, locals: queries.Locals}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.legend == nil {
		cfg.legend = NewLegend()
	}
	if cfg.logger == nil {
		cfg.logger = logging.Default()
	}

	hl, err := query.Compile(g, cfg.highlights)
	if err != nil {
		return nil, fmt.Errorf("bendlens: compile highlights: %w", err)
	}
	tokens, err := NewTokenEncoder(cfg.legend, hl)
	if err != nil {
		return nil, err
	}
	lq, err := query.Compile(g, cfg.locals)
	if err != nil {
		return nil, fmt.Errorf("bendlens: compile locals: %w", err)
	}
	defs, err := NewDefinitionIndex(lq)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		grammar:  g,
		legend:   cfg.legend,
		tokens:   tokens,
		defs:     defs,
		compiler: cfg.compiler,
		metrics:  cfg.metrics,
		logger:   cfg.logger,
	}, nil
}

// Grammar returns the grammar documents are parsed with.
func (a *Analyzer) Grammar() syntax.Grammar { return a.grammar }

// Legend returns the token legend.
func (a *Analyzer) Legend() *Legend { return a.legend }

// Logger returns the analyzer's logger.
func (a *Analyzer) Logger() *log.Logger { return a.logger }

// Metrics returns the metrics sink, possibly nil.
func (a *Analyzer) Metrics() *metrics.Metrics { return a.metrics }

func (a *Analyzer) observeQuery(name string, start time.Time) {
	a.metrics.ObserveQuery(name, time.Since(start))
}
