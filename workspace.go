package bendlens

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/metrics"
	"github.com/jward/bendlens/internal/store"
)

// ErrDocumentNotFound is returned for URIs that are not open.
var ErrDocumentNotFound = errors.New("bendlens: document not found")

// Workspace is the set of open documents. Documents are analyzed
// independently; the optional store indexes their authoritative definitions
// for workspace symbol search.
type Workspace struct {
	analyzer *Analyzer
	store    *store.Store
	workers  int

	mu   sync.RWMutex
	docs map[string]*Document

	// indexMu serializes store writes. A document's row is written only
	// while the document is open, checked under indexMu.
	indexMu sync.Mutex
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*Workspace)

// WithStore indexes document symbols in s. The workspace does not close s.
func WithStore(s *store.Store) WorkspaceOption {
	return func(w *Workspace) {
		w.store = s
	}
}

// WithWorkers bounds how many documents AnalyzeAll processes at once.
func WithWorkers(n int) WorkspaceOption {
	return func(w *Workspace) {
		if n > 0 {
			w.workers = n
		}
	}
}

// NewWorkspace creates an empty workspace.
func NewWorkspace(a *Analyzer, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{analyzer: a, workers: 4, docs: make(map[string]*Document)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Analyzer returns the shared analyzer.
func (w *Workspace) Analyzer() *Analyzer { return w.analyzer }

// Open adds a document, replacing any open document with the same URI, and
// analyzes it.
func (w *Workspace) Open(ctx context.Context, uri string, version int32, text string) *Document {
	doc := NewDocument(w.analyzer, uri, version, text)
	w.mu.Lock()
	w.docs[uri] = doc
	n := len(w.docs)
	w.mu.Unlock()
	w.analyzer.metrics.SetDocumentsOpen(n)
	w.analyzer.logger.Debug("document opened", logging.FieldURI, uri, logging.FieldVersion, version)

	w.refresh(ctx, doc)
	return doc
}

// Change applies content changes to an open document and reanalyzes it.
func (w *Workspace) Change(ctx context.Context, uri string, version int32, changes ...Change) error {
	doc, err := w.Document(uri)
	if err != nil {
		return err
	}
	if err := doc.ApplyChanges(version, changes...); err != nil {
		return err
	}
	w.refresh(ctx, doc)
	return nil
}

// Close discards a document and its indexed symbols.
func (w *Workspace) Close(uri string) error {
	w.mu.Lock()
	_, ok := w.docs[uri]
	delete(w.docs, uri)
	n := len(w.docs)
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	w.analyzer.metrics.SetDocumentsOpen(n)
	w.analyzer.logger.Debug("document closed", logging.FieldURI, uri)
	if w.store == nil {
		return nil
	}
	w.indexMu.Lock()
	defer w.indexMu.Unlock()
	if w.lookup(uri) != nil {
		// Reopened since; the row belongs to the new document.
		return nil
	}
	if err := w.store.DeleteDocument(uri); err != nil {
		return fmt.Errorf("bendlens: close %s: %w", uri, err)
	}
	return nil
}

func (w *Workspace) lookup(uri string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[uri]
}

// isOpen reports whether doc is still the open document for its URI.
func (w *Workspace) isOpen(doc *Document) bool {
	return w.lookup(doc.URI()) == doc
}

// Document returns the open document with uri.
func (w *Workspace) Document(uri string) (*Document, error) {
	w.mu.RLock()
	doc, ok := w.docs[uri]
	w.mu.RUnlock()
	if !ok {
		w.analyzer.metrics.SoftFailure(metrics.ReasonUnknownDocument)
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, uri)
	}
	return doc, nil
}

// Documents returns the open documents ordered by URI.
func (w *Workspace) Documents() []*Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	uris := slices.Sorted(maps.Keys(w.docs))
	out := make([]*Document, len(uris))
	for i, uri := range uris {
		out[i] = w.docs[uri]
	}
	return out
}

// refresh analyzes doc and reindexes its symbols. Failures are logged; the
// document stays usable.
func (w *Workspace) refresh(ctx context.Context, doc *Document) {
	_ = doc.Analyze(ctx)
	if w.store == nil {
		return
	}
	w.indexMu.Lock()
	defer w.indexMu.Unlock()
	if !w.isOpen(doc) {
		return
	}
	id, err := w.upsert(doc)
	if err == nil {
		err = indexSymbols(ctx, w.store, id, doc)
	}
	if err != nil {
		w.analyzer.logger.Warn("index symbols failed", logging.FieldURI, doc.URI(), logging.FieldError, err)
	}
}

func (w *Workspace) upsert(doc *Document) (int64, error) {
	return w.store.UpsertDocument(&store.Document{
		URI:         doc.URI(),
		Grammar:     w.analyzer.grammar.Name(),
		Hash:        store.ContentHash(doc.Text()),
		Version:     int(doc.Version()),
		LastIndexed: time.Now(),
	})
}

// indexSymbols writes the authoritative definitions of doc to sw.
func indexSymbols(ctx context.Context, sw store.SymbolWriter, id int64, doc *Document) error {
	return sw.ReplaceSymbols(id, toStoreSymbols(doc.Symbols(ctx)))
}

func toStoreSymbols(defs []Definition) []*store.Symbol {
	syms := make([]*store.Symbol, len(defs))
	for i, d := range defs {
		syms[i] = &store.Symbol{
			Name:      d.Name,
			Kind:      d.Kind.String(),
			Container: d.Container,
			StartLine: int(d.Range.Start.Line),
			StartCol:  int(d.Range.Start.Character),
			EndLine:   int(d.Range.End.Line),
			EndCol:    int(d.Range.End.Character),
		}
	}
	return syms
}

// Symbols searches the authoritative definitions of the open documents for
// names containing query, case-insensitively. limit <= 0 means no limit.
func (w *Workspace) Symbols(ctx context.Context, query string, limit int) ([]protocol.SymbolInformation, error) {
	if w.store != nil {
		hits, err := w.store.SearchSymbols(query, limit)
		if err != nil {
			return nil, fmt.Errorf("bendlens: symbols: %w", err)
		}
		out := make([]protocol.SymbolInformation, len(hits))
		for i, h := range hits {
			kind, _ := ParseDefinitionKind(h.Kind)
			out[i] = symbolInformation(h.URI, Definition{
				Kind:      kind,
				Name:      h.Name,
				Container: h.Container,
				Range: protocol.Range{
					Start: protocol.Position{Line: protocol.UInteger(h.StartLine), Character: protocol.UInteger(h.StartCol)},
					End:   protocol.Position{Line: protocol.UInteger(h.EndLine), Character: protocol.UInteger(h.EndCol)},
				},
			})
		}
		return out, nil
	}

	type hit struct {
		uri string
		def Definition
	}
	var hits []hit
	needle := strings.ToLower(query)
	for _, doc := range w.Documents() {
		for _, d := range doc.Symbols(ctx) {
			if strings.Contains(strings.ToLower(d.Name), needle) {
				hits = append(hits, hit{doc.URI(), d})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].def.Name != hits[j].def.Name {
			return hits[i].def.Name < hits[j].def.Name
		}
		return hits[i].uri < hits[j].uri
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]protocol.SymbolInformation, len(hits))
	for i, h := range hits {
		out[i] = symbolInformation(h.uri, h.def)
	}
	return out, nil
}

func symbolInformation(uri string, d Definition) protocol.SymbolInformation {
	si := protocol.SymbolInformation{
		Name:     d.Name,
		Kind:     d.Kind.SymbolKind(),
		Location: protocol.Location{URI: uri, Range: d.Range},
	}
	if d.Container != "" {
		c := d.Container
		si.ContainerName = &c
	}
	return si
}
