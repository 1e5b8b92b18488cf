package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/bendlens"
	"github.com/jward/bendlens/internal/grammar"
	"github.com/jward/bendlens/internal/position"
	"github.com/jward/bendlens/internal/query"
	"github.com/jward/bendlens/internal/session"
	"github.com/jward/bendlens/internal/syntax"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the semantic tokens of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFileCommand(cmd, "tokens", args[0], func(ctx context.Context, ws *bendlens.Workspace, doc *bendlens.Document) (any, error) {
			toks, err := doc.Tokens(ctx)
			if err != nil {
				return nil, err
			}
			types := ws.Analyzer().Legend().TokenTypes()
			m, text := doc.Mapper(), doc.Text()
			out := make([]CLIToken, len(toks))
			for i, tok := range toks {
				start := m.PositionToByte(protocol.Position{Line: protocol.UInteger(tok.Line), Character: protocol.UInteger(tok.Char)})
				end := m.PositionToByte(protocol.Position{Line: protocol.UInteger(tok.Line), Character: protocol.UInteger(tok.Char + tok.Length)})
				out[i] = CLIToken{
					Line:   tok.Line,
					Char:   tok.Char,
					Length: tok.Length,
					Type:   string(types[tok.Type]),
					Text:   text[start:end],
				}
			}
			return out, nil
		})
	},
}

var definitionsCmd = &cobra.Command{
	Use:   "definitions <file> [<line> <col>]",
	Short: "List the definitions visible at a position",
	Long:  "Lists the file's top-level definitions and the local bindings in scope at <line> <col>. Line and column are 0-based; the column counts UTF-16 code units. Without a position only top-level definitions are listed.",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 && len(args) != 3 {
			return fmt.Errorf("accepts <file> or <file> <line> <col>, received %d args", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var pos protocol.Position
		if len(args) == 3 {
			line, err := parseIntArg(args[1], "line")
			if err != nil {
				return outputError(cmd, "definitions", err)
			}
			col, err := parseIntArg(args[2], "col")
			if err != nil {
				return outputError(cmd, "definitions", err)
			}
			pos = protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
		}
		return runFileCommand(cmd, "definitions", args[0], func(ctx context.Context, ws *bendlens.Workspace, doc *bendlens.Document) (any, error) {
			defs := doc.Definitions(ctx, doc.Mapper().PositionToByte(pos))
			out := make([]CLIDefinition, len(defs))
			for i, d := range defs {
				out[i] = toCLIDefinition(d)
			}
			return out, nil
		})
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree <file>",
	Short: "Print the syntax tree of a file as an S-expression",
	Long:  "Parses <file> with the grammar its extension selects (.bend, .go, .py, .rs, .js, .jsx) or the configured grammar for other extensions, and prints the tree.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParseCommand(cmd, "tree", args[0], func(ctx context.Context, s *session.Session) (any, error) {
			tree := s.Tree(ctx)
			return CLITree{
				File:     args[0],
				Grammar:  tree.Grammar(),
				HasError: tree.Root().HasError(),
				Sexp:     tree.String(),
			}, nil
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <file> <query-file>",
	Short: "Run a structural query over a file",
	Long:  "Compiles the patterns in <query-file> against the grammar of <file>, chosen as for the tree command, and prints every capture in document order.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[1])
		if err != nil {
			return outputError(cmd, "query", fmt.Errorf("reading query: %w", err))
		}
		return runParseCommand(cmd, "query", args[0], func(ctx context.Context, s *session.Session) (any, error) {
			q, err := query.Compile(s.Grammar(), string(src))
			if err != nil {
				return nil, err
			}
			text := position.StringSource(s.Buffer().String())
			caps, err := q.RunAll(ctx, s.Tree(ctx).Root(), text)
			if err != nil {
				return nil, err
			}
			m := s.Mapper()
			out := make([]CLICapture, len(caps))
			for i, c := range caps {
				p := m.ByteToPosition(c.Node.StartByte())
				out[i] = CLICapture{
					Name:      c.Name,
					Pattern:   c.Pattern,
					Kind:      c.Node.Kind(),
					Text:      c.Text(text),
					StartLine: int(p.Line),
					StartCol:  int(p.Character),
				}
			}
			return out, nil
		})
	},
}

var (
	flagQuery string
	flagLimit int
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>...",
	Short: "Search the top-level definitions of several files",
	Long:  "Analyzes every file, indexes its definitions in the symbol store and prints those whose name contains --query, case-insensitively.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagQuery, "query", "", "substring to match; empty lists every symbol")
	symbolsCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of results (0 for no limit)")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	ws, closeStore, err := newWorkspace()
	if err != nil {
		return outputError(cmd, "symbols", err)
	}
	defer closeStore()

	ctx := context.Background()
	for _, file := range args {
		uri, text, err := readDocument(file)
		if err != nil {
			return outputError(cmd, "symbols", err)
		}
		ws.Open(ctx, uri, 1, text)
	}
	if err := ws.AnalyzeAll(ctx); err != nil {
		return outputError(cmd, "symbols", err)
	}
	syms, err := ws.Symbols(ctx, flagQuery, flagLimit)
	if err != nil {
		return outputError(cmd, "symbols", err)
	}
	out := make([]CLISymbol, len(syms))
	for i, s := range syms {
		container := ""
		if s.ContainerName != nil {
			container = *s.ContainerName
		}
		out[i] = CLISymbol{
			Name:      s.Name,
			Kind:      symbolKindNames[s.Kind],
			Container: container,
			File:      s.Location.URI,
			StartLine: int(s.Location.Range.Start.Line),
			StartCol:  int(s.Location.Range.Start.Character),
		}
	}
	return outputResult(cmd, CLIResult{Command: "symbols", Results: out})
}

// symbolKindNames names the symbol kinds definitions map to.
var symbolKindNames = map[protocol.SymbolKind]string{
	protocol.SymbolKindFunction:    bendlens.KindFunction.String(),
	protocol.SymbolKindClass:       bendlens.KindType.String(),
	protocol.SymbolKindConstructor: bendlens.KindConstructor.String(),
	protocol.SymbolKindField:       bendlens.KindField.String(),
	protocol.SymbolKindVariable:    bendlens.KindVariable.String(),
}

var legendCmd = &cobra.Command{
	Use:   "legend",
	Short: "Print the semantic token legend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := bendlens.NewLegend().Protocol()
		return outputResult(cmd, CLIResult{
			Command: "legend",
			Results: CLILegend{TokenTypes: l.TokenTypes, TokenModifiers: l.TokenModifiers},
		})
	},
}

// --- Helpers ---

// newWorkspace builds a workspace from the layered configuration.
func newWorkspace() (*bendlens.Workspace, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return bendlens.NewFromConfig(cfg, newLogger(cfg), nil)
}

// runFileCommand opens file in a fresh workspace, runs fn over it and
// prints the result.
func runFileCommand(cmd *cobra.Command, command, file string, fn func(context.Context, *bendlens.Workspace, *bendlens.Document) (any, error)) error {
	ws, closeStore, err := newWorkspace()
	if err != nil {
		return outputError(cmd, command, err)
	}
	defer closeStore()

	uri, text, err := readDocument(file)
	if err != nil {
		return outputError(cmd, command, err)
	}
	ctx := context.Background()
	doc := ws.Open(ctx, uri, 1, text)
	results, err := fn(ctx, ws, doc)
	if err != nil {
		return outputError(cmd, command, err)
	}
	return outputResult(cmd, CLIResult{Command: command, Results: results})
}

// runParseCommand parses file on its own, without queries or a book, and
// prints the result of fn. Any registered grammar can serve it.
func runParseCommand(cmd *cobra.Command, command, file string, fn func(context.Context, *session.Session) (any, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return outputError(cmd, command, err)
	}
	newLogger(cfg)
	g, err := grammarFor(file, cfg.Grammar)
	if err != nil {
		return outputError(cmd, command, err)
	}
	_, text, err := readDocument(file)
	if err != nil {
		return outputError(cmd, command, err)
	}
	results, err := fn(context.Background(), session.New(g, text))
	if err != nil {
		return outputError(cmd, command, err)
	}
	return outputResult(cmd, CLIResult{Command: command, Results: results})
}

// grammarFor picks the grammar registered for the extension of file, or
// fallback when the extension is not recognized.
func grammarFor(file, fallback string) (syntax.Grammar, error) {
	name, ok := grammar.ForFile(file)
	if !ok {
		name = fallback
	}
	return grammar.Lookup(name)
}

// readDocument reads file and returns its file URI and text.
func readDocument(file string) (string, string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", file, err)
	}
	return "file://" + filepath.ToSlash(abs), string(data), nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

func toCLIDefinition(d bendlens.Definition) CLIDefinition {
	return CLIDefinition{
		Name:      d.Name,
		Kind:      d.Kind.String(),
		Container: d.Container,
		StartLine: int(d.Range.Start.Line),
		StartCol:  int(d.Range.Start.Character),
		EndLine:   int(d.Range.End.Line),
		EndCol:    int(d.Range.End.Character),
	}
}
