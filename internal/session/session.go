// Package session keeps a document's text buffer and its syntax tree in
// step. The tree is discarded on every change and reparsed on demand, so a
// caller that asks for the tree always gets one derived from the current
// text.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jward/bendlens/internal/position"
	"github.com/jward/bendlens/internal/syntax"
	"github.com/jward/bendlens/internal/textbuf"
)

// Session owns one document's buffer, tree and coordinate mapper.
// It is not safe for concurrent use; the owning document serializes access.
type Session struct {
	grammar syntax.Grammar
	buf     *textbuf.Buffer
	version int

	tree     *syntax.Tree
	parseErr error
	mapper   *position.Mapper

	observe func(grammar string, d time.Duration, err error)
}

// Option configures a Session.
type Option func(*Session)

// WithParseObserver registers fn to be called after every parse with the
// grammar name, the parse duration and the backend error, if any.
func WithParseObserver(fn func(grammar string, d time.Duration, err error)) Option {
	return func(s *Session) {
		s.observe = fn
	}
}

// New creates a session over text. Nothing is parsed until Tree is called.
func New(g syntax.Grammar, text string, opts ...Option) *Session {
	s := &Session{grammar: g, buf: textbuf.New(text)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Grammar returns the grammar trees are parsed with.
func (s *Session) Grammar() syntax.Grammar { return s.grammar }

// Buffer returns the text buffer. Callers must not mutate it directly.
func (s *Session) Buffer() *textbuf.Buffer { return s.buf }

// Version counts the changes applied since the session was created.
func (s *Session) Version() int { return s.version }

// ReplaceWholeText replaces the buffer contents and discards the tree.
func (s *Session) ReplaceWholeText(text string) {
	s.buf.ReplaceAll(text)
	s.invalidate()
}

// Edit replaces the bytes [start, end) with text and discards the tree.
func (s *Session) Edit(start, end int, text string) error {
	if err := s.buf.Replace(start, end, text); err != nil {
		return fmt.Errorf("session: edit: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *Session) invalidate() {
	s.version++
	s.tree = nil
	s.parseErr = nil
	s.mapper = nil
}

// Parsed reports whether a tree for the current text is cached.
func (s *Session) Parsed() bool { return s.tree != nil }

// Tree returns the tree for the current text, parsing synchronously when
// none is cached. It never returns nil: when the grammar fails the result is
// an ERROR root spanning the whole document. A parse interrupted by ctx is
// not cached.
func (s *Session) Tree(ctx context.Context) *syntax.Tree {
	if s.tree != nil {
		return s.tree
	}

	start := time.Now()
	tree, err := s.grammar.Parse(ctx, s.buf.ChunkAt)
	if s.observe != nil {
		s.observe(s.grammar.Name(), time.Since(start), err)
	}
	if err != nil {
		fallback := syntax.EmptyTree(syntax.ErrorKind, s.buf.Len(), s.grammar.Name())
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fallback
		}
		s.tree, s.parseErr = fallback, err
		return s.tree
	}
	s.tree = tree
	return s.tree
}

// Err returns the error of the last completed parse of the current text.
func (s *Session) Err() error { return s.parseErr }

// Mapper returns the coordinate mapper for the current text.
func (s *Session) Mapper() *position.Mapper {
	if s.mapper == nil {
		s.mapper = position.New(s.buf)
	}
	return s.mapper
}
