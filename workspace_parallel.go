package bendlens

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/store"
)

// AnalyzeAll reanalyzes every open document in three phases:
//
//	Phase A (serial):   record each document in the store.
//	Phase B (parallel): parse, compile and collect symbols, at most
//	                    WithWorkers documents at a time, into a batch.
//	Phase C (serial):   commit the batch in one transaction.
//
// Cancellation is checked before each document starts. Compile failures are
// logged per document and do not stop the others.
func (w *Workspace) AnalyzeAll(ctx context.Context) error {
	docs := w.Documents()
	if len(docs) == 0 {
		return nil
	}

	// ---- Phase A ----
	ids := make([]int64, len(docs))
	if w.store != nil {
		var err error
		if ids, err = w.record(docs); err != nil {
			return err
		}
	}

	// ---- Phase B ----
	batch := store.NewBatchedStore()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := doc.Analyze(gctx); err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if w.store != nil && ids[i] != 0 {
				return indexSymbols(gctx, batch, ids[i], doc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bendlens: analyze: %w", err)
	}

	// ---- Phase C ----
	if w.store != nil {
		if err := w.commit(batch, docs, ids); err != nil {
			return fmt.Errorf("bendlens: analyze: %w", err)
		}
	}
	w.analyzer.logger.Debug("analyzed documents", logging.FieldCount, len(docs), logging.FieldWorkers, w.workers)
	return nil
}

// record upserts the rows of the documents that are still open. The ID of
// a document closed before it could be recorded is 0.
func (w *Workspace) record(docs []*Document) ([]int64, error) {
	w.indexMu.Lock()
	defer w.indexMu.Unlock()
	ids := make([]int64, len(docs))
	for i, doc := range docs {
		if !w.isOpen(doc) {
			continue
		}
		id, err := w.upsert(doc)
		if err != nil {
			return nil, fmt.Errorf("bendlens: analyze %s: %w", doc.URI(), err)
		}
		ids[i] = id
	}
	return ids, nil
}

// commit writes batch, first dropping the documents closed since record.
func (w *Workspace) commit(batch *store.BatchedStore, docs []*Document, ids []int64) error {
	w.indexMu.Lock()
	defer w.indexMu.Unlock()
	for i, doc := range docs {
		if ids[i] != 0 && !w.isOpen(doc) {
			batch.Discard(ids[i])
		}
	}
	return w.store.Commit(batch)
}
