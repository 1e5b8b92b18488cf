package bend

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bendlens/internal/syntax"
)

// chunked serves src in pieces of at most size bytes.
func chunked(src string, size int) syntax.ReadFunc {
	return func(offset int) []byte {
		if offset >= len(src) {
			return nil
		}
		end := min(offset+size, len(src))
		return []byte(src[offset:end])
	}
}

func TestParse_Trees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "fun call",
			src:  `main = (f "hi!")`,
			want: `(source_file (fun_function_definition name: (identifier) body: (call_expression function: (identifier) argument: (string))))`,
		},
		{
			name: "imp function",
			src:  "def add(x, y):\n  return x + y\n",
			want: `(source_file (imp_function_definition name: (identifier) parameters: (parameters (identifier) (identifier)) body: (block (return_statement value: (binary_expression left: (identifier) right: (identifier))))))`,
		},
		{
			name: "fun type",
			src:  "type Tree = (Node ~left ~right) | (Leaf value)\n",
			want: `(source_file (fun_type_definition name: (identifier) (fun_type_constructor name: (identifier) (fun_type_constructor_fields (identifier) (identifier))) (fun_type_constructor name: (identifier) (fun_type_constructor_fields (identifier)))))`,
		},
		{
			name: "imp type",
			src:  "type Shape:\n  Circle { radius }\n  Rect { w, h }\n",
			want: `(source_file (imp_type_definition name: (identifier) (imp_type_constructor name: (identifier) (imp_type_constructor_field name: (identifier))) (imp_type_constructor name: (identifier) (imp_type_constructor_field name: (identifier)) (imp_type_constructor_field name: (identifier)))))`,
		},
		{
			name: "switch expression",
			src:  "f = switch n { 0: 1; _: 2 }",
			want: `(source_file (fun_function_definition name: (identifier) body: (switch_expression argument: (identifier) (switch_case (switch_pattern) body: (integer)) (switch_case (switch_pattern) body: (integer)))))`,
		},
		{
			name: "lambda let operation",
			src:  "g = λx let y = x; (+ y 1)",
			want: `(source_file (fun_function_definition name: (identifier) body: (lambda parameter: (identifier) body: (let_expression pattern: (identifier) value: (identifier) body: (operation argument: (identifier) argument: (integer))))))`,
		},
		{
			name: "imports object hvm",
			src:  "from lib/utils import (foo, bar)\nimport std\nobject Pair { fst, ~snd }\nhvm magic:\n  (a b)\n",
			want: `(source_file (import_from (os_path) (os_path) (os_path)) (import_name (os_path)) (object_definition name: (identifier) (object_field name: (identifier)) (object_field name: (identifier))) (hvm_definition name: (identifier) code: (hvm_code)))`,
		},
		{
			name: "match statement",
			src:  "def f(t):\n  match t:\n    case Tree/Node:\n      return t.left\n    case _:\n      return 0\n",
			want: `(source_file (imp_function_definition name: (identifier) parameters: (parameters (identifier)) body: (block (match_statement argument: (identifier) (match_case pattern: (identifier) body: (block (return_statement value: (identifier)))) (match_case pattern: (identifier) body: (block (return_statement value: (integer))))))))`,
		},
		{
			name: "if elif else",
			src:  "def main():\n  x = f(1, 2)\n  if x == 3:\n    return x\n  elif x > 3:\n    return 0\n  else:\n    return 1\n",
			want: `(source_file (imp_function_definition name: (identifier) parameters: (parameters) body: (block (assignment_statement left: (identifier) right: (call_expression function: (identifier) argument: (integer) argument: (integer))) (if_statement condition: (binary_expression left: (identifier) right: (integer)) consequence: (block (return_statement value: (identifier))) (elif_clause condition: (binary_expression left: (identifier) right: (integer)) consequence: (block (return_statement value: (integer)))) alternative: (else_clause body: (block (return_statement value: (integer))))))))`,
		},
		{
			name: "imp monadic bind",
			src:  "def main():\n  with IO:\n    x <- IO/print(\"hi\")\n    return x\n",
			want: `(source_file (imp_function_definition name: (identifier) parameters: (parameters) body: (block (with_statement type: (identifier) body: (block (ask_statement left: (identifier) right: (call_expression function: (identifier) argument: (string))) (return_statement value: (identifier)))))))`,
		},
		{
			name: "fun with block",
			src:  `main = with IO { ask x = (IO/print "hi"); (wrap x) }`,
			want: `(source_file (fun_function_definition name: (identifier) body: (with_expression type: (identifier) body: (ask_expression pattern: (identifier) value: (call_expression function: (identifier) argument: (string)) body: (call_expression function: (identifier) argument: (identifier))))))`,
		},
		{
			name: "fun with block over lines",
			src:  "main = with IO {\n  ask x = (IO/print \"hi\")\n  (wrap x)\n}\n",
			want: `(source_file (fun_function_definition name: (identifier) body: (with_expression type: (identifier) body: (ask_expression pattern: (identifier) value: (call_expression function: (identifier) argument: (string)) body: (call_expression function: (identifier) argument: (identifier))))))`,
		},
		{
			name: "switch predecessor",
			src:  "f = switch n { 0: Z; _: (S n-1) }",
			want: `(source_file (fun_function_definition name: (identifier) body: (switch_expression argument: (identifier) (switch_case (switch_pattern) body: (identifier)) (switch_case (switch_pattern) body: (call_expression function: (identifier) argument: (identifier))))))`,
		},
		{
			name: "subtraction with spaces",
			src:  "def f(n):\n  return n - 1\n",
			want: `(source_file (imp_function_definition name: (identifier) parameters: (parameters (identifier)) body: (block (return_statement value: (binary_expression left: (identifier) right: (integer))))))`,
		},
		{
			name: "comments",
			src:  "# hello\nmain = 1 # trailing\n",
			want: `(source_file (comment) (fun_function_definition name: (identifier) body: (integer)) (comment))`,
		},
		{
			name: "empty",
			src:  "",
			want: `(source_file)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree := ParseString(tt.src)
			require.NotNil(t, tree)
			assert.Equal(t, tt.want, tree.String())
			assert.False(t, tree.Root().HasError())
			assert.Equal(t, 0, tree.Root().StartByte())
			assert.Equal(t, len(tt.src), tree.Root().EndByte())
		})
	}
}

func TestParse_ByteRanges(t *testing.T) {
	t.Parallel()
	src := `main = (f "hi!")`
	def := ParseString(src).Root().Child(0)
	require.Equal(t, kindFunFunction, def.Kind())

	name := def.ChildByFieldName("name")
	assert.Equal(t, "main", src[name.StartByte():name.EndByte()])

	call := def.ChildByFieldName("body")
	assert.Equal(t, `(f "hi!")`, src[call.StartByte():call.EndByte()])
	arg := call.ChildByFieldName("argument")
	assert.Equal(t, `"hi!"`, src[arg.StartByte():arg.EndByte()])
}

func TestParse_PredecessorName(t *testing.T) {
	t.Parallel()
	src := "def f(n):\n  switch n:\n    case 0:\n      return 0\n    case _:\n      return n-1\n"
	tree := ParseString(src)
	require.False(t, tree.Root().HasError())

	var ids []string
	tree.Root().Walk(func(n *syntax.Node) bool {
		if n.Kind() == kindIdentifier {
			ids = append(ids, src[n.StartByte():n.EndByte()])
		}
		return true
	})
	assert.Equal(t, []string{"f", "n", "n", "n-1"}, ids)
}

func TestParse_HvmCodeRange(t *testing.T) {
	t.Parallel()
	src := "hvm magic:\n  (a b)\n  (c d)\nmain = 1\n"
	root := ParseString(src).Root()
	require.Equal(t, 2, root.NamedChildCount())
	code := root.Child(0).ChildByFieldName("code")
	require.NotNil(t, code)
	assert.Equal(t, "(a b)\n  (c d)", src[code.StartByte():code.EndByte()])
}

func TestParse_ChunkedInputMatchesContiguous(t *testing.T) {
	t.Parallel()
	src := strings.Join([]string{
		`id = λx x`,
		`main = (f "héllo 😀")`,
		`def add(x, y):`,
		`  return x + y`,
		`type T = A | (B ~b)`,
		``,
	}, "\n")
	want := ParseString(src)

	for _, size := range []int{1, 2, 3, 7} {
		got, err := New().Parse(context.Background(), chunked(src, size))
		require.NoError(t, err)
		assert.Equal(t, want.String(), got.String(), "chunk size %d", size)

		var wantRanges, gotRanges [][2]int
		want.Root().Walk(func(n *syntax.Node) bool {
			wantRanges = append(wantRanges, [2]int{n.StartByte(), n.EndByte()})
			return true
		})
		got.Root().Walk(func(n *syntax.Node) bool {
			gotRanges = append(gotRanges, [2]int{n.StartByte(), n.EndByte()})
			return true
		})
		assert.Equal(t, wantRanges, gotRanges, "chunk size %d", size)
	}
}

func TestParse_ErrorRecovery(t *testing.T) {
	t.Parallel()

	t.Run("missing paren", func(t *testing.T) {
		t.Parallel()
		tree := ParseString(`main = (f "hi!"`)
		assert.True(t, tree.Root().HasError())
		def := tree.Root().Child(0)
		assert.Equal(t, kindFunFunction, def.Kind())
		assert.Equal(t, kindCall, def.ChildByFieldName("body").Kind())
	})

	t.Run("stray line between rules", func(t *testing.T) {
		t.Parallel()
		tree := ParseString("main = 1\n)\nfoo = 2\n")
		assert.Equal(t,
			`(source_file (fun_function_definition name: (identifier) body: (integer)) (ERROR) (fun_function_definition name: (identifier) body: (integer)))`,
			tree.String())
	})

	t.Run("bad statement keeps the rest of the block", func(t *testing.T) {
		t.Parallel()
		tree := ParseString("def main():\n  ) oops\n  return 1\n")
		assert.True(t, tree.Root().HasError())
		body := tree.Root().Child(0).ChildByFieldName("body")
		require.NotNil(t, body)
		assert.Equal(t, kindError, body.NamedChild(0).Kind())
		assert.Equal(t, kindReturnStmt, body.NamedChild(1).Kind())
	})

	t.Run("garbage bytes", func(t *testing.T) {
		t.Parallel()
		src := "main = 1\n\x00\xff ¤\n"
		tree := ParseString(src)
		assert.True(t, tree.Root().HasError())
		assert.Equal(t, len(src), tree.Root().EndByte())
	})
}

func TestParse_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Parse(ctx, chunked("main = 1", 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGrammar_Vocabulary(t *testing.T) {
	t.Parallel()
	g := New()
	assert.Equal(t, "bend", g.Name())
	assert.True(t, g.HasKind("fun_function_definition", true))
	assert.True(t, g.HasKind("ERROR", true))
	assert.True(t, g.HasKind("def", false))
	assert.True(t, g.HasKind("λ", false))
	assert.True(t, g.HasKind("**", false))
	assert.False(t, g.HasKind("def", true))
	assert.False(t, g.HasKind("no_such_rule", true))
	assert.True(t, g.HasField("name"))
	assert.False(t, g.HasField("no_such_field"))
}
