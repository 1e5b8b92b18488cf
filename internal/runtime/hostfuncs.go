package runtime

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/risor-io/risor/object"

	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/syntax"
)

// nodeArg unwraps a proxied *syntax.Node argument.
func nodeArg(fn string, arg object.Object) (*syntax.Node, *object.Error) {
	proxy, ok := arg.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected proxy (Node), got %s", fn, arg.Type())
	}
	node, ok := proxy.Interface().(*syntax.Node)
	if !ok || node == nil {
		return nil, object.Errorf("%s: expected *syntax.Node, got %T", fn, proxy.Interface())
	}
	return node, nil
}

// makeQueryFn creates the "query" host function.
//
// query(pattern, node) → []map[string]Node
//
// Each map has capture names as keys and proxied Nodes as values.
func makeQueryFn(r *Runtime, text query.TextProvider) *object.Builtin {
	return object.NewBuiltin("query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("query", 2, len(args))
		}

		patternStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("query: pattern must be a string, got %s", args[0].Type())
		}
		node, errObj := nodeArg("query", args[1])
		if errObj != nil {
			return errObj
		}

		q, err := r.compile(patternStr.Value())
		if err != nil {
			return object.Errorf("query: invalid pattern: %v", err)
		}
		matches, err := q.Matches(ctx, node, text)
		if err != nil {
			return object.Errorf("query: %v", err)
		}

		results := make([]object.Object, 0, len(matches))
		for _, m := range matches {
			matchMap := make(map[string]object.Object, len(m.Captures))
			for _, c := range m.Captures {
				p, err := object.NewProxy(c.Node)
				if err != nil {
					return object.Errorf("query: proxy error for capture %q: %v", c.Name, err)
				}
				matchMap[c.Name] = p
			}
			results = append(results, object.NewMap(matchMap))
		}
		return object.NewList(results)
	})
}

// makeNodeTextFn creates the "node_text" host function.
//
// node_text(node) → string
func makeNodeTextFn(text query.TextProvider) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		node, errObj := nodeArg("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(text.Slice(node.StartByte(), node.EndByte()))
	})
}

// makeNodeSpanFn creates "node_span".
//
// node_span(node) → {"start": int, "end": int}
func makeNodeSpanFn() *object.Builtin {
	return object.NewBuiltin("node_span", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_span", 1, len(args))
		}
		node, errObj := nodeArg("node_span", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewMap(map[string]object.Object{
			"start": object.NewInt(int64(node.StartByte())),
			"end":   object.NewInt(int64(node.EndByte())),
		})
	})
}

// makeNodeKindFn creates "node_kind".
//
// node_kind(node) → string
func makeNodeKindFn() *object.Builtin {
	return object.NewBuiltin("node_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_kind", 1, len(args))
		}
		node, errObj := nodeArg("node_kind", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(node.Kind())
	})
}

// makeNodeChildFn creates "node_child", which returns Risor nil instead of
// a proxied Go nil pointer when the field is absent.
//
// node_child(node, fieldName) → Node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		node, errObj := nodeArg("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		fieldStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("node_child: field must be a string, got %s", args[1].Type())
		}

		child := node.ChildByFieldName(fieldStr.Value())
		if child == nil {
			return object.Nil
		}
		p, err := object.NewProxy(child)
		if err != nil {
			return object.Errorf("node_child: proxy error: %v", err)
		}
		return p
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *log.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg) }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg) }
func (l *logObject) Error(msg string) { l.logger.Error(msg) }
