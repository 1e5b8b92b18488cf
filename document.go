package bendlens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/book"
	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/metrics"
	"github.com/jward/bendlens/internal/position"
	"github.com/jward/bendlens/internal/session"
	"github.com/jward/bendlens/internal/syntax"
)

// Change is one content change. A nil Range replaces the whole text.
type Change struct {
	Range *protocol.Range
	Text  string
}

// Document is one open text document: its buffer and tree, the compiler's
// book for it, and the analyses built from them. All methods are safe for
// concurrent use; each document serializes its own work.
type Document struct {
	mu       sync.Mutex
	uri      string
	analyzer *Analyzer
	session  *session.Session
	logger   *log.Logger

	version int32 // client version

	book          *book.Book
	bookVersion   int // text version the book was compiled for, -1 for none
	failedVersion int // text version whose compile failed, -1 for none
}

// NewDocument opens a document over text. Nothing is parsed yet.
func NewDocument(a *Analyzer, uri string, version int32, text string) *Document {
	return &Document{
		uri:           uri,
		analyzer:      a,
		session:       session.New(a.grammar, text, session.WithParseObserver(a.metrics.ObserveParse)),
		logger:        a.logger.With(logging.FieldURI, uri),
		version:       version,
		bookVersion:   -1,
		failedVersion: -1,
	}
}

// URI returns the document URI.
func (d *Document) URI() string { return d.uri }

// Version returns the client version of the last change.
func (d *Document) Version() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// TextVersion counts the changes applied to the text since it was opened.
// Books are matched against it.
func (d *Document) TextVersion() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.Version()
}

// Text returns the current text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.Buffer().String()
}

// Update replaces the whole text. The tree is discarded and the book
// becomes stale.
func (d *Document) Update(version int32, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	d.session.ReplaceWholeText(text)
}

// Edit replaces the byte range [start, end) with text.
func (d *Document) Edit(start, end int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.Edit(start, end, text)
}

// ApplyChanges applies changes in order. Ranges are resolved against the
// text as left by the previous change. On error the changes before the
// failing one stay applied.
func (d *Document) ApplyChanges(version int32, changes ...Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version = version
	for i, c := range changes {
		if c.Range == nil {
			d.session.ReplaceWholeText(c.Text)
			continue
		}
		m := d.session.Mapper()
		start, end := m.PositionToByte(c.Range.Start), m.PositionToByte(c.Range.End)
		if end < start {
			return fmt.Errorf("bendlens: change %d: range end before start", i)
		}
		if err := d.session.Edit(start, end, c.Text); err != nil {
			return fmt.Errorf("bendlens: change %d: %w", i, err)
		}
	}
	return nil
}

// SetBook installs a book compiled for the given text version. A book for
// any other version is kept but treated as stale.
func (d *Document) SetBook(b *book.Book, textVersion int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.book, d.bookVersion = b, textVersion
}

// Book returns the current book and whether it matches the current text.
func (d *Document) Book() (*book.Book, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.book, d.book != nil && d.bookVersion == d.session.Version()
}

// Tree returns the syntax tree of the current text, parsing if needed.
func (d *Document) Tree(ctx context.Context) *syntax.Tree {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.Tree(ctx)
}

// Mapper returns the coordinate mapper of the current text.
func (d *Document) Mapper() *position.Mapper {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.Mapper()
}

// Analyze parses the current text and, when the analyzer has a compiler,
// refreshes the book. A compile failure is logged and returned; the
// document keeps answering from its syntax tree.
func (d *Document) Analyze(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.session.Tree(ctx)
	return d.refreshBook(ctx)
}

// refreshBook compiles the current text once per text version.
func (d *Document) refreshBook(ctx context.Context) error {
	comp := d.analyzer.compiler
	v := d.session.Version()
	if comp == nil || d.bookVersion == v || d.failedVersion == v {
		return nil
	}
	tree := d.session.Tree(ctx)
	b, err := comp.Compile(ctx, tree, d.session.Buffer())
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			d.failedVersion = v
		}
		d.analyzer.metrics.SoftFailure(metrics.ReasonCompile)
		d.logger.Warn("compile failed", logging.FieldVersion, v, logging.FieldError, err)
		return err
	}
	d.book, d.bookVersion = b, v
	return nil
}

// freshBook returns the book when it matches the current text.
func (d *Document) freshBook(ctx context.Context) *book.Book {
	_ = d.refreshBook(ctx)
	if d.book != nil && d.bookVersion == d.session.Version() {
		return d.book
	}
	if d.book != nil || d.analyzer.compiler != nil {
		d.analyzer.metrics.SoftFailure(metrics.ReasonStaleBook)
		d.logger.Debug("book stale, local bindings only", logging.FieldVersion, d.session.Version())
	}
	return nil
}

// Definitions returns the definitions visible at the byte offset cursor:
// every authoritative definition of a fresh book, then the local bindings
// whose scope strictly contains cursor. It never fails; a query error
// degrades the result and is logged.
func (d *Document) Definitions(ctx context.Context, cursor int) []Definition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.definitions(ctx, cursor)
}

func (d *Document) definitions(ctx context.Context, cursor int) []Definition {
	b := d.freshBook(ctx)
	tree := d.session.Tree(ctx)
	start := time.Now()
	defs, err := d.analyzer.defs.Collect(ctx, b, tree.Root(), d.session.Buffer(), d.session.Mapper(), cursor)
	d.analyzer.observeQuery("locals", start)
	if err != nil {
		d.softFailure("definitions", err)
	}
	return defs
}

// Symbols returns the authoritative definitions of a fresh book.
func (d *Document) Symbols(ctx context.Context) []Definition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return BookDefinitions(d.freshBook(ctx), d.session.Mapper())
}

// Completion returns the completion items at pos.
func (d *Document) Completion(ctx context.Context, pos protocol.Position) []protocol.CompletionItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	cursor := d.session.Mapper().PositionToByte(pos)
	defs := d.definitions(ctx, cursor)
	items := make([]protocol.CompletionItem, 0, len(defs))
	for _, def := range defs {
		kind := def.Kind.CompletionKind()
		item := protocol.CompletionItem{Label: def.Name, Kind: &kind}
		if def.Container != "" {
			detail := def.Container
			item.Detail = &detail
		}
		items = append(items, item)
	}
	return items
}

// Definition resolves go-to-definition at pos. Resolution is not
// implemented; the result is always empty.
func (d *Document) Definition(ctx context.Context, pos protocol.Position) []protocol.Location {
	return []protocol.Location{}
}

// SemanticTokens returns the document's semantic tokens. On failure the
// token array is empty.
func (d *Document) SemanticTokens(ctx context.Context) *protocol.SemanticTokens {
	d.mu.Lock()
	defer d.mu.Unlock()
	tree := d.session.Tree(ctx)
	start := time.Now()
	data, err := d.analyzer.tokens.Encode(ctx, tree.Root(), d.session.Buffer(), d.session.Mapper())
	d.analyzer.observeQuery("highlights", start)
	if err != nil {
		d.softFailure("semantic tokens", err)
		data = []protocol.UInteger{}
	}
	return &protocol.SemanticTokens{Data: data}
}

// Tokens returns the decoded semantic tokens.
func (d *Document) Tokens(ctx context.Context) ([]Token, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	tree := d.session.Tree(ctx)
	return d.analyzer.tokens.Tokens(ctx, tree.Root(), d.session.Buffer(), d.session.Mapper())
}

func (d *Document) softFailure(what string, err error) {
	reason := metrics.ReasonQuery
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		reason = metrics.ReasonCancelled
	}
	d.analyzer.metrics.SoftFailure(reason)
	d.logger.Debug(what+" degraded", logging.FieldError, err)
}
