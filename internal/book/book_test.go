package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_KeyedByName(t *testing.T) {
	t.Parallel()
	b := New()
	assert.True(t, b.Empty())

	b.AddDef(Def{Name: "main", Span: Span{0, 8}})
	b.AddDef(Def{Name: "add", Span: Span{9, 20}})
	b.AddDef(Def{Name: "main", Span: Span{21, 30}})
	require.Len(t, b.Defs, 2)
	assert.Equal(t, Span{21, 30}, b.Def("main").Span)
	assert.Nil(t, b.Def("nope"))

	b.AddHvmDef(Def{Name: "magic"})
	b.AddHvmDef(Def{Name: "magic"})
	assert.Len(t, b.HvmDefs, 1)
	assert.False(t, b.Empty())
}

func TestAddCtrAndField(t *testing.T) {
	t.Parallel()
	b := New()
	b.AddAdt(Adt{Name: "Tree", Span: Span{0, 40}})
	require.NoError(t, b.AddCtr("Tree", Ctr{Name: "Tree/Node"}))
	require.NoError(t, b.AddCtr("Tree", Ctr{Name: "Tree/Leaf", Span: &Span{30, 40}}))
	require.NoError(t, b.AddField("Tree", "Tree/Node", Field{Name: "left", Rec: true}))
	require.NoError(t, b.AddField("Tree", "Tree/Node", Field{Name: "right", Rec: true}))

	adt := b.Adt("Tree")
	require.NotNil(t, adt)
	require.Len(t, adt.Ctrs, 2)
	assert.Equal(t, []Field{{"left", true}, {"right", true}}, adt.Ctrs[0].Fields)
	assert.Nil(t, adt.Ctrs[0].Span)
	assert.Equal(t, &Span{30, 40}, adt.Ctrs[1].Span)

	assert.ErrorContains(t, b.AddCtr("Nope", Ctr{Name: "X"}), `unknown type "Nope"`)
	assert.ErrorContains(t, b.AddField("Tree", "Tree/Nope", Field{Name: "x"}), `unknown constructor "Tree/Nope"`)
	assert.ErrorContains(t, b.AddField("Nope", "X", Field{Name: "x"}), `unknown type "Nope"`)
}

const sample = `
defs:
  - name: main
    span: {start: 0, end: 10}
  - name: main
    span: {start: 20, end: 30}
hvm_defs:
  - name: magic
    span: {start: 40, end: 50}
adts:
  - name: Shape
    span: {start: 60, end: 90}
    ctrs:
      - name: Shape/Circle
        fields: [{name: radius}]
      - name: Shape/Rect
        span: {start: 75, end: 90}
        fields: [{name: w}, {name: h}]
`

func TestLoad(t *testing.T) {
	t.Parallel()
	b, err := Load([]byte(sample))
	require.NoError(t, err)

	require.Len(t, b.Defs, 1)
	assert.Equal(t, Span{20, 30}, b.Defs[0].Span)
	require.Len(t, b.HvmDefs, 1)
	require.Len(t, b.Adts, 1)
	shape := b.Adts[0]
	require.Len(t, shape.Ctrs, 2)
	assert.Len(t, shape.Ctrs[1].Fields, 2)
	assert.Equal(t, &Span{75, 90}, shape.Ctrs[1].Span)
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()
	b, err := Load([]byte(`{"defs": [{"name": "id", "span": {"start": 1, "end": 2}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "id", b.Defs[0].Name)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()
	_, err := Load([]byte("defs: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "book: decode")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "book.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	b, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, b.Adts, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
