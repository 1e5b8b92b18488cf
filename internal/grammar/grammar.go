// Package grammar is the registry of grammars a session can be built on.
// The native Bend grammar is the default; tree-sitter languages with Go
// bindings are available for tooling.
package grammar

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/jward/bendlens/internal/grammar/bend"
	"github.com/jward/bendlens/internal/grammar/treesitter"
	"github.com/jward/bendlens/internal/syntax"
)

// ErrUnknownGrammar is returned by Lookup for names not in the registry.
var ErrUnknownGrammar = errors.New("grammar: unknown grammar")

// Default is the grammar used when none is configured.
const Default = bend.Name

// extToGrammar maps file extensions to grammar names.
var extToGrammar = map[string]string{
	".bend": bend.Name,
	".go":   "go",
	".py":   "python",
	".rs":   "rust",
	".js":   "javascript",
	".jsx":  "javascript",
}

// registry is lazily initialized on first lookup via sync.Once.
var (
	registry     map[string]syntax.Grammar
	registryOnce sync.Once
)

func initRegistry() {
	registryOnce.Do(func() {
		registry = map[string]syntax.Grammar{bend.Name: bend.New()}
		for name, lang := range map[string]*sitter.Language{
			"go":         golang.GetLanguage(),
			"python":     python.GetLanguage(),
			"rust":       rust.GetLanguage(),
			"javascript": javascript.GetLanguage(),
		} {
			registry[name] = treesitter.New(name, lang)
		}
	})
}

// Lookup returns the grammar registered under name.
func Lookup(name string) (syntax.Grammar, error) {
	initRegistry()
	g, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrammar, name)
	}
	return g, nil
}

// Names lists the registered grammar names in sorted order.
func Names() []string {
	initRegistry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFile returns the grammar name for a file path based on its extension.
// Returns ("", false) if the extension is not recognized.
func ForFile(path string) (string, bool) {
	name, ok := extToGrammar[strings.ToLower(filepath.Ext(path))]
	return name, ok
}
