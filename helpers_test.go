package bendlens

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jward/bendlens/internal/grammar/bend"
	"github.com/jward/bendlens/internal/logging"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/runtime"
	"github.com/jward/bendlens/internal/syntax"
	"github.com/jward/bendlens/scripts"
)

// program exercises every kind of book entry: three functions, one HVM
// definition, and types with five constructors and seven fields.
const program = `main = (f "hi!")
f 0 = 1
f n = (f (- n 1))

def add(x, y):
  z = x + y
  return z

hvm magic:
  (a b)

type Tree = (Node ~left ~right) | Leaf

type Shape:
  Circle { radius }
  Rect { w, h }

object Pair { fst, snd }
`

// newScriptCompiler returns the compiler backed by the embedded book script.
func newScriptCompiler(t testing.TB) *runtime.ScriptCompiler {
	t.Helper()
	rt := runtime.NewRuntime(bend.New(), runtime.WithRuntimeFS(scripts.FS), runtime.WithLogger(logging.Discard()))
	c, err := runtime.NewScriptCompiler(rt, runtime.BookScriptPath(bend.Name))
	require.NoError(t, err)
	return c
}

// newTestAnalyzer builds an analyzer over the Bend grammar with a silent
// logger.
func newTestAnalyzer(t testing.TB, opts ...Option) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(bend.New(), append([]Option{WithLogger(logging.Discard())}, opts...)...)
	require.NoError(t, err)
	return a
}

// fakeCompiler counts calls and returns a fixed book or error.
type fakeCompiler struct {
	book  *Book
	err   error
	calls atomic.Int32
}

func (c *fakeCompiler) Compile(ctx context.Context, tree *syntax.Tree, text query.TextProvider) (*Book, error) {
	c.calls.Add(1)
	return c.book, c.err
}

func countKind(defs []Definition, kind DefinitionKind) int {
	n := 0
	for _, d := range defs {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

func namesOf(defs []Definition, kind DefinitionKind) []string {
	var out []string
	for _, d := range defs {
		if d.Kind == kind {
			out = append(out, d.Name)
		}
	}
	return out
}
