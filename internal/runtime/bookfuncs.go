package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/bendlens/internal/book"
)

// makeInsertDefFn creates "insert_def", or "insert_hvm_def" when hvm is set.
// Inserting a name twice replaces the earlier entry, so a function written
// as several rules keeps the span of its last rule.
//
// insert_def({"name": str, "start": int, "end": int})
func makeInsertDefFn(b *book.Book, hvm bool) *object.Builtin {
	name := "insert_def"
	add := b.AddDef
	if hvm {
		name = "insert_hvm_def"
		add = b.AddHvmDef
	}
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("%s: %v", name, err)
		}
		def := book.Def{Name: getString(m, "name"), Span: getSpan(m)}
		if def.Name == "" {
			return object.Errorf("%s: missing name", name)
		}
		add(def)
		return object.Nil
	})
}

// makeInsertAdtFn creates "insert_adt".
//
// insert_adt({"name": str, "start": int, "end": int})
func makeInsertAdtFn(b *book.Book) *object.Builtin {
	return object.NewBuiltin("insert_adt", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_adt", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_adt: %v", err)
		}
		adt := book.Adt{Name: getString(m, "name"), Span: getSpan(m)}
		if adt.Name == "" {
			return object.Errorf("insert_adt: missing name")
		}
		b.AddAdt(adt)
		return object.Nil
	})
}

// makeInsertCtorFn creates "insert_ctor". The span is optional.
//
// insert_ctor({"adt": str, "name": str, "start": int, "end": int})
func makeInsertCtorFn(b *book.Book) *object.Builtin {
	return object.NewBuiltin("insert_ctor", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_ctor", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_ctor: %v", err)
		}
		ctr := book.Ctr{Name: getString(m, "name")}
		if _, ok := m["start"]; ok {
			span := getSpan(m)
			ctr.Span = &span
		}
		if err := b.AddCtr(getString(m, "adt"), ctr); err != nil {
			return object.Errorf("insert_ctor: %v", err)
		}
		return object.Nil
	})
}

// makeInsertFieldFn creates "insert_field".
//
// insert_field({"adt": str, "ctor": str, "name": str, "rec": bool})
func makeInsertFieldFn(b *book.Book) *object.Builtin {
	return object.NewBuiltin("insert_field", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("insert_field", 1, len(args))
		}
		m, err := extractMap(args[0])
		if err != nil {
			return object.Errorf("insert_field: %v", err)
		}
		f := book.Field{Name: getString(m, "name"), Rec: getBool(m, "rec")}
		if err := b.AddField(getString(m, "adt"), getString(m, "ctor"), f); err != nil {
			return object.Errorf("insert_field: %v", err)
		}
		return object.Nil
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getInt(m map[string]object.Object, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	if i, ok := v.(*object.Int); ok {
		return int(i.Value())
	}
	if f, ok := v.(*object.Float); ok {
		return int(f.Value())
	}
	return 0
}

func getBool(m map[string]object.Object, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if b, ok := v.(*object.Bool); ok {
		return b.Value()
	}
	return false
}

func getSpan(m map[string]object.Object) book.Span {
	return book.Span{Start: getInt(m, "start"), End: getInt(m, "end")}
}
