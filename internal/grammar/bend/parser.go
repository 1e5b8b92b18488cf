package bend

import (
	"context"

	"github.com/jward/bendlens/internal/syntax"
)

type mode int

const (
	// modeFun parses prefix-application syntax: (f a b), (+ 1 2).
	modeFun mode = iota
	// modeImp parses infix, indentation-based syntax: f(a, b), a + b.
	modeImp
)

// checkEvery is how many tokens the parser consumes between context checks.
const checkEvery = 256

// closers end any expression in progress.
var closers = set(")", "]", "}", ",", ":", ";", "|", "->",
	"=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=")

// terminators are keywords that end an expression in progress.
var terminators = set("in", "else", "elif", "case", "when")

// parser is a recursive descent parser that never fails: input it cannot
// place becomes ERROR nodes, and required tokens it cannot find become
// missing nodes.
type parser struct {
	ctx      context.Context
	lex      *lexer
	tok      token
	prevEnd  int
	comments []*syntax.Node
	consumed int
	err      error

	// depth counts open brackets. Newlines are insignificant inside them.
	depth int
	// stmtStart is the offset of the first token of the imperative statement
	// being parsed.
	stmtStart int
	// fieldOverride replaces the field parseSeq stores its next element under.
	fieldOverride string
}

func newParser(ctx context.Context, read syntax.ReadFunc) *parser {
	p := &parser{ctx: ctx, lex: newLexer(read), stmtStart: -1}
	p.advance()
	return p
}

// advance moves to the next non-comment token, collecting comments.
func (p *parser) advance() {
	if p.err != nil {
		return
	}
	p.consumed++
	if p.consumed%checkEvery == 0 {
		if err := p.ctx.Err(); err != nil {
			p.err = err
			p.tok = token{kind: tokEOF, start: p.tok.end, end: p.tok.end, first: true}
			return
		}
	}
	for {
		t := p.lex.next()
		if t.kind == tokComment {
			p.comments = append(p.comments, syntax.NewNode(kindComment, true, t.start, t.end))
			continue
		}
		p.tok = t
		return
	}
}

// stop reports the end of input or the start of the next top-level item.
func (p *parser) stop() bool {
	return p.tok.kind == tokEOF || (p.tok.first && p.tok.col == 0)
}

// is reports whether the current token is the keyword or operator text.
func (p *parser) is(text string) bool {
	return (p.tok.kind == tokKeyword || p.tok.kind == tokOperator) && p.tok.text == text
}

func (p *parser) endOfExpr(m mode) bool {
	if p.stop() {
		return true
	}
	switch p.tok.kind {
	case tokOperator:
		if closers[p.tok.text] {
			return true
		}
	case tokKeyword:
		if terminators[p.tok.text] {
			return true
		}
	}
	return m == modeImp && p.depth == 0 && p.tok.first && p.tok.start != p.stmtStart
}

// node starts a named node at the current token. Its range is fixed up as
// children are added.
func (p *parser) node(kind string) *syntax.Node {
	return syntax.NewNode(kind, true, p.tok.start, p.tok.start)
}

// leaf consumes the current token and returns its node.
func (p *parser) leaf() *syntax.Node {
	t := p.tok
	var n *syntax.Node
	switch t.kind {
	case tokIdent:
		n = syntax.NewNode(kindIdentifier, true, t.start, t.end)
	case tokInteger:
		n = syntax.NewNode(kindInteger, true, t.start, t.end)
	case tokFloat:
		n = syntax.NewNode(kindFloat, true, t.start, t.end)
	case tokString:
		n = syntax.NewNode(kindString, true, t.start, t.end)
	case tokChar:
		n = syntax.NewNode(kindCharacter, true, t.start, t.end)
	case tokSymbol:
		n = syntax.NewNode(kindSymbol, true, t.start, t.end)
	case tokKeyword, tokOperator:
		n = syntax.NewNode(t.text, false, t.start, t.end)
	default:
		n = syntax.NewNode(kindError, true, t.start, t.end)
	}
	p.prevEnd = t.end
	p.advance()
	return n
}

// expect consumes the token text into parent, or records it as missing.
func (p *parser) expect(parent *syntax.Node, text string) bool {
	if p.is(text) {
		parent.AddChild("", p.leaf())
		return true
	}
	parent.AddChild("", syntax.NewMissing(text, false, p.prevEnd))
	return false
}

func (p *parser) missing(kind string) *syntax.Node {
	return syntax.NewMissing(kind, true, p.prevEnd)
}

// identifier consumes an identifier or records one as missing.
func (p *parser) identifier() *syntax.Node {
	if p.tok.kind == tokIdent {
		return p.leaf()
	}
	return p.missing(kindIdentifier)
}

// errorLeaf wraps the current token in an ERROR node.
func (p *parser) errorLeaf() *syntax.Node {
	if p.tok.kind == tokInvalid {
		return p.leaf()
	}
	n := p.node(kindError)
	n.AddChild("", p.leaf())
	return n
}

// errorUntil wraps tokens in an ERROR node until done reports true. The
// current token is always consumed.
func (p *parser) errorUntil(done func() bool) *syntax.Node {
	n := p.node(kindError)
	n.AddChild("", p.leaf())
	for p.tok.kind != tokEOF && !done() {
		n.AddChild("", p.leaf())
	}
	return n
}

func (p *parser) errorRestOfLine() *syntax.Node {
	return p.errorUntil(func() bool { return p.tok.first })
}

func (p *parser) parseSourceFile() *syntax.Node {
	root := syntax.NewNode(kindSourceFile, true, 0, 0)
	for p.tok.kind != tokEOF {
		root.AddChild("", p.parseItem())
		if !p.stop() {
			root.AddChild("", p.errorUntil(p.stop))
		}
	}
	root.SetStart(0)
	root.SetEnd(max(p.tok.end, root.EndByte()))
	attachComments(root, p.comments)
	return root
}

func (p *parser) parseItem() *syntax.Node {
	p.stmtStart = p.tok.start
	switch {
	case p.is("def"):
		return p.parseImpFunction()
	case p.is("type"):
		return p.parseTypeDefinition()
	case p.is("object"):
		return p.parseObject()
	case p.is("hvm"):
		return p.parseHvm()
	case p.is("import"):
		return p.parseImport()
	case p.is("from"):
		return p.parseImportFrom()
	case p.tok.kind == tokIdent:
		return p.parseFunFunction()
	}
	return p.errorUntil(p.stop)
}

// attachComments places each comment under the deepest node enclosing it.
func attachComments(root *syntax.Node, comments []*syntax.Node) {
	for _, c := range comments {
		parent := root
		for {
			var next *syntax.Node
			for _, ch := range parent.Children() {
				if ch.ChildCount() > 0 && ch.StartByte() <= c.StartByte() && c.EndByte() <= ch.EndByte() {
					next = ch
					break
				}
			}
			if next == nil {
				break
			}
			parent = next
		}
		parent.InsertChild(c)
	}
}

// Top-level items.

func (p *parser) parseFunFunction() *syntax.Node {
	n := p.node(kindFunFunction)
	n.AddChild("name", p.leaf())
	for !p.is("=") && !p.endOfExpr(modeFun) {
		n.AddChild("pattern", p.parsePattern())
	}
	p.expect(n, "=")
	n.AddChild("body", p.parseExpr(modeFun))
	return n
}

func (p *parser) parseImpFunction() *syntax.Node {
	indent := p.tok.col
	n := p.node(kindImpFunction)
	n.AddChild("", p.leaf())
	n.AddChild("name", p.identifier())
	if p.is("(") {
		n.AddChild("parameters", p.parseParameters())
	} else {
		n.AddChild("parameters", p.missing(kindParameters))
	}
	if p.is("->") {
		n.AddChild("", p.leaf())
		n.AddChild("return_type", p.parseExpr(modeImp))
	}
	p.expect(n, ":")
	n.AddChild("body", p.parseBlock(indent))
	return n
}

func (p *parser) parseParameters() *syntax.Node {
	n := p.node(kindParameters)
	n.AddChild("", p.leaf())
	p.parseSeq(n, ")", "", modeImp, func() *syntax.Node {
		id := p.identifier()
		if !p.is(":") {
			return id
		}
		// Annotated parameter: the annotation hangs off the parameter list.
		n.AddChild("", id)
		n.AddChild("", p.leaf())
		return p.withField("type", p.parseExpr(modeImp))
	})
	return n
}

// withField lets a parseSeq element choose its own field.
func (p *parser) withField(field string, n *syntax.Node) *syntax.Node {
	p.fieldOverride = field
	return n
}

func (p *parser) parseTypeDefinition() *syntax.Node {
	indent := p.tok.col
	kw := p.leaf()
	name := p.identifier()
	var params *syntax.Node
	if p.is("(") {
		params = p.parseParameters()
	}
	if p.is("=") {
		n := p.node(kindFunType)
		n.AddChild("", kw)
		n.AddChild("name", name)
		n.AddChild("parameters", params)
		n.AddChild("", p.leaf())
		p.parseFunConstructors(n)
		return n
	}
	n := p.node(kindImpType)
	n.AddChild("", kw)
	n.AddChild("name", name)
	n.AddChild("parameters", params)
	p.expect(n, ":")
	p.parseImpConstructors(n, indent)
	return n
}

func (p *parser) parseFunConstructors(n *syntax.Node) {
	for {
		ctor := p.node(kindFunTypeCtor)
		switch {
		case p.tok.kind == tokIdent:
			ctor.AddChild("name", p.leaf())
		case p.is("("):
			ctor.AddChild("", p.leaf())
			p.depth++
			ctor.AddChild("name", p.identifier())
			fields := p.node(kindFunTypeCtorFields)
			for !p.is(")") && !p.stop() {
				before := p.tok.start
				if p.is("~") {
					fields.AddChild("", p.leaf())
				}
				if p.tok.kind == tokIdent {
					fields.AddChild("", p.leaf())
				} else {
					fields.AddChild("", p.errorLeaf())
				}
				if p.tok.start == before {
					break
				}
			}
			if fields.ChildCount() > 0 {
				ctor.AddChild("", fields)
			}
			p.depth--
			p.expect(ctor, ")")
		default:
			ctor.AddChild("name", p.missing(kindIdentifier))
		}
		n.AddChild("", ctor)
		if !p.is("|") || p.stop() {
			return
		}
		n.AddChild("", p.leaf())
	}
}

func (p *parser) parseImpConstructors(n *syntax.Node, indent int) {
	if !p.tok.first || p.stop() || p.tok.col <= indent {
		return
	}
	col := p.tok.col
	for p.tok.first && p.tok.col == col && p.tok.kind != tokEOF {
		if p.tok.kind != tokIdent {
			n.AddChild("", p.errorRestOfLine())
			continue
		}
		ctor := p.node(kindImpTypeCtor)
		ctor.AddChild("name", p.leaf())
		if p.is("{") && !p.tok.first {
			ctor.AddChild("", p.leaf())
			p.parseSeq(ctor, "}", "", modeImp, func() *syntax.Node {
				return p.parseFieldDecl(kindImpTypeCtorField)
			})
		}
		n.AddChild("", ctor)
		if !p.tok.first {
			n.AddChild("", p.errorRestOfLine())
		}
	}
}

// parseFieldDecl parses `~name` or `name: Type` inside braces.
func (p *parser) parseFieldDecl(kind string) *syntax.Node {
	f := p.node(kind)
	if p.is("~") {
		f.AddChild("", p.leaf())
	}
	f.AddChild("name", p.identifier())
	if p.is(":") {
		f.AddChild("", p.leaf())
		f.AddChild("type", p.parseExpr(modeImp))
	}
	return f
}

func (p *parser) parseObject() *syntax.Node {
	n := p.node(kindObject)
	n.AddChild("", p.leaf())
	n.AddChild("name", p.identifier())
	if p.is("{") {
		n.AddChild("", p.leaf())
		p.parseSeq(n, "}", "", modeImp, func() *syntax.Node {
			return p.parseFieldDecl(kindObjectField)
		})
	}
	return n
}

func (p *parser) parseHvm() *syntax.Node {
	n := p.node(kindHvm)
	n.AddChild("", p.leaf())
	n.AddChild("name", p.identifier())
	p.expect(n, ":")
	if p.stop() {
		n.AddChild("code", p.missing(kindHvmCode))
		return n
	}
	code := syntax.NewNode(kindHvmCode, true, p.tok.start, p.tok.end)
	for !p.stop() {
		code.SetEnd(p.tok.end)
		p.prevEnd = p.tok.end
		p.advance()
	}
	n.AddChild("code", code)
	return n
}

func (p *parser) parseImport() *syntax.Node {
	n := p.node(kindImportName)
	n.AddChild("", p.leaf())
	p.parseImportTargets(n)
	return n
}

func (p *parser) parseImportFrom() *syntax.Node {
	n := p.node(kindImportFrom)
	n.AddChild("", p.leaf())
	n.AddChild("", p.parsePath())
	p.expect(n, "import")
	p.parseImportTargets(n)
	return n
}

func (p *parser) parseImportTargets(n *syntax.Node) {
	if !p.is("(") {
		n.AddChild("", p.parsePath())
		return
	}
	n.AddChild("", p.leaf())
	p.parseSeq(n, ")", "", modeImp, p.parsePath)
}

// parsePath joins adjacent identifier, "." and "/" tokens into one os_path.
func (p *parser) parsePath() *syntax.Node {
	if !p.isPathToken() || p.stop() {
		return p.missing(kindOSPath)
	}
	n := syntax.NewNode(kindOSPath, true, p.tok.start, p.tok.end)
	for {
		n.SetEnd(p.tok.end)
		p.prevEnd = p.tok.end
		p.advance()
		if !p.isPathToken() || p.tok.start != p.prevEnd {
			return n
		}
	}
}

func (p *parser) isPathToken() bool {
	return p.tok.kind == tokIdent || p.is(".") || p.is("/")
}

// Imperative statements.

// parseBlock parses the statements indented deeper than indent. A statement
// on the same line as the block's header forms a one-statement block.
func (p *parser) parseBlock(indent int) *syntax.Node {
	if p.tok.kind == tokEOF {
		return p.missing(kindBlock)
	}
	block := p.node(kindBlock)
	if !p.tok.first {
		block.AddChild("", p.parseStatement())
		if !p.tok.first {
			block.AddChild("", p.errorRestOfLine())
		}
		return block
	}
	if p.tok.col <= indent {
		return p.missing(kindBlock)
	}
	col := p.tok.col
	for p.tok.kind != tokEOF && p.tok.first && p.tok.col >= col {
		if p.tok.col > col {
			block.AddChild("", p.errorRestOfLine())
			continue
		}
		block.AddChild("", p.parseStatement())
		if !p.tok.first {
			block.AddChild("", p.errorRestOfLine())
		}
	}
	return block
}

func (p *parser) parseStatement() *syntax.Node {
	p.stmtStart = p.tok.start
	indent := p.tok.col
	switch {
	case p.is("return"):
		n := p.node(kindReturnStmt)
		n.AddChild("", p.leaf())
		if !p.endOfExpr(modeImp) {
			n.AddChild("value", p.parseExpr(modeImp))
		}
		return n
	case p.is("if"):
		return p.parseIfStatement(indent)
	case p.is("match"):
		return p.parseMatchStatement(kindMatchStmt, kindMatchCase, indent)
	case p.is("fold"):
		return p.parseMatchStatement(kindFoldStmt, kindMatchCase, indent)
	case p.is("switch"):
		return p.parseMatchStatement(kindSwitchStmt, kindSwitchCase, indent)
	case p.is("for"):
		return p.parseForStatement(indent)
	case p.is("bend"):
		return p.parseBendStatement(indent)
	case p.is("with"):
		n := p.node(kindWithStmt)
		n.AddChild("", p.leaf())
		n.AddChild("type", p.identifier())
		p.expect(n, ":")
		n.AddChild("body", p.parseBlock(indent))
		return n
	case p.is("open"):
		n := p.node(kindOpenStmt)
		n.AddChild("", p.leaf())
		n.AddChild("type", p.identifier())
		p.expect(n, ":")
		n.AddChild("value", p.parseExpr(modeImp))
		return n
	case p.is("use"):
		n := p.node(kindUseStmt)
		n.AddChild("", p.leaf())
		n.AddChild("left", p.identifier())
		p.expect(n, "=")
		n.AddChild("right", p.parseExpr(modeImp))
		return n
	case p.is("ask"):
		n := p.node(kindAskStmt)
		n.AddChild("", p.leaf())
		n.AddChild("left", p.parsePattern())
		p.expect(n, "=")
		n.AddChild("right", p.parseExpr(modeImp))
		return n
	case p.is("def"):
		return p.parseImpFunction()
	}

	if p.endOfExpr(modeImp) {
		return p.errorRestOfLine()
	}
	left := p.parseExpr(modeImp)
	if p.is("<-") {
		n := p.node(kindAskStmt)
		n.AddChild("left", left)
		n.AddChild("", p.leaf())
		n.AddChild("right", p.parseExpr(modeImp))
		return n
	}
	if p.tok.kind == tokOperator && assignOperators[p.tok.text] {
		n := p.node(kindAssignStmt)
		n.AddChild("left", left)
		n.AddChild("", p.leaf())
		n.AddChild("right", p.parseExpr(modeImp))
		return n
	}
	n := p.node(kindExprStmt)
	n.AddChild("", left)
	return n
}

// atClause reports whether the current token is keyword starting a line at
// column col, as elif and else clauses must.
func (p *parser) atClause(keyword string, col int) bool {
	return p.is(keyword) && p.tok.first && p.tok.col == col
}

func (p *parser) parseIfStatement(indent int) *syntax.Node {
	n := p.node(kindIfStmt)
	n.AddChild("", p.leaf())
	n.AddChild("condition", p.parseExpr(modeImp))
	p.expect(n, ":")
	n.AddChild("consequence", p.parseBlock(indent))
	for p.atClause("elif", indent) {
		p.stmtStart = p.tok.start
		c := p.node(kindElifClause)
		c.AddChild("", p.leaf())
		c.AddChild("condition", p.parseExpr(modeImp))
		p.expect(c, ":")
		c.AddChild("consequence", p.parseBlock(indent))
		n.AddChild("", c)
	}
	if p.atClause("else", indent) {
		n.AddChild("alternative", p.parseElse(indent))
	}
	return n
}

func (p *parser) parseElse(indent int) *syntax.Node {
	p.stmtStart = p.tok.start
	c := p.node(kindElseClause)
	c.AddChild("", p.leaf())
	p.expect(c, ":")
	c.AddChild("body", p.parseBlock(indent))
	return c
}

func (p *parser) parseMatchStatement(kind, caseKind string, indent int) *syntax.Node {
	n := p.node(kind)
	n.AddChild("", p.leaf())
	n.AddChild("argument", p.parseExpr(modeImp))
	if p.is("=") {
		n.AddChild("", p.leaf())
		n.AddChild("value", p.parseExpr(modeImp))
	}
	p.expect(n, ":")
	if !p.tok.first || p.stop() || p.tok.col <= indent {
		return n
	}
	col := p.tok.col
	for p.tok.kind != tokEOF && p.tok.first && p.tok.col >= col {
		if !p.atClause("case", col) {
			n.AddChild("", p.errorRestOfLine())
			continue
		}
		p.stmtStart = p.tok.start
		c := p.node(caseKind)
		c.AddChild("", p.leaf())
		if caseKind == kindSwitchCase {
			c.AddChild("", p.parseSwitchPattern())
		} else {
			c.AddChild("pattern", p.parsePattern())
		}
		p.expect(c, ":")
		c.AddChild("body", p.parseBlock(col))
		n.AddChild("", c)
	}
	return n
}

func (p *parser) parseForStatement(indent int) *syntax.Node {
	n := p.node(kindForStmt)
	n.AddChild("", p.leaf())
	n.AddChild("variable", p.parsePattern())
	p.expect(n, "in")
	n.AddChild("iterable", p.parseExpr(modeImp))
	p.expect(n, ":")
	n.AddChild("body", p.parseBlock(indent))
	if p.atClause("else", indent) {
		n.AddChild("alternative", p.parseElse(indent))
	}
	return n
}

func (p *parser) parseBendStatement(indent int) *syntax.Node {
	n := p.node(kindBendStmt)
	n.AddChild("", p.leaf())
	for {
		b := p.node(kindAssignStmt)
		b.AddChild("left", p.identifier())
		p.expect(b, "=")
		b.AddChild("right", p.parseExpr(modeImp))
		n.AddChild("binding", b)
		if !p.is(",") {
			break
		}
		n.AddChild("", p.leaf())
	}
	p.expect(n, ":")
	if !p.tok.first || p.stop() || p.tok.col <= indent {
		return n
	}
	col := p.tok.col
	if p.atClause("when", col) {
		p.stmtStart = p.tok.start
		w := p.node(kindWhenClause)
		w.AddChild("", p.leaf())
		w.AddChild("condition", p.parseExpr(modeImp))
		p.expect(w, ":")
		w.AddChild("body", p.parseBlock(col))
		n.AddChild("", w)
	}
	if p.atClause("else", col) {
		n.AddChild("alternative", p.parseElse(col))
	}
	return n
}

// Expressions and patterns.

func (p *parser) parseExpr(m mode) *syntax.Node {
	if m == modeImp {
		return p.parseBinary(1)
	}
	return p.parsePrimary(m)
}

func (p *parser) parseBinary(minPrec int) *syntax.Node {
	left := p.parseUnary()
	for p.tok.kind == tokOperator && !(p.depth == 0 && p.tok.first) {
		op := p.tok.text
		prec, ok := binaryPrecedence[op]
		if !ok || prec < minPrec {
			break
		}
		n := syntax.NewNode(kindBinary, true, left.StartByte(), left.StartByte())
		n.AddChild("left", left)
		n.AddChild("operator", p.leaf())
		next := prec + 1
		if op == "**" {
			next = prec
		}
		n.AddChild("right", p.parseBinary(next))
		left = n
	}
	return left
}

func (p *parser) parseUnary() *syntax.Node {
	if (p.is("-") || p.is("~") || p.is("!")) && !p.endOfExpr(modeImp) {
		n := p.node(kindUnary)
		n.AddChild("operator", p.leaf())
		n.AddChild("argument", p.parseUnary())
		return n
	}
	return p.parsePrimary(modeImp)
}

func (p *parser) parsePrimary(m mode) *syntax.Node {
	if p.endOfExpr(m) {
		return p.missing(kindIdentifier)
	}
	switch p.tok.kind {
	case tokIdent:
		id := p.leaf()
		if m != modeImp {
			return id
		}
		if p.is("(") && p.tok.start == id.EndByte() {
			n := p.node(kindCall)
			n.AddChild("function", id)
			n.AddChild("", p.leaf())
			p.parseSeq(n, ")", "argument", m, func() *syntax.Node { return p.parseExpr(m) })
			return n
		}
		if p.is("{") && !p.tok.first {
			return p.parseConstructor(id)
		}
		return id
	case tokInteger, tokFloat, tokString, tokChar, tokSymbol:
		return p.leaf()
	}

	switch {
	case p.is("*"):
		n := p.node(kindEra)
		n.AddChild("", p.leaf())
		return n
	case p.is("("):
		return p.parseParen(m)
	case p.is("["):
		n := p.node(kindList)
		n.AddChild("", p.leaf())
		p.parseSeq(n, "]", "element", m, func() *syntax.Node { return p.parseExpr(m) })
		return n
	case p.is("{"):
		n := p.node(kindMap)
		n.AddChild("", p.leaf())
		p.parseSeq(n, "}", "", m, func() *syntax.Node { return p.parseMapEntry(m) })
		return n
	case p.is("λ") || p.is("@"):
		n := p.node(kindLambda)
		n.AddChild("", p.leaf())
		n.AddChild("parameter", p.parsePattern())
		n.AddChild("body", p.parseExpr(m))
		return n
	case p.is("lambda"):
		n := p.node(kindLambda)
		n.AddChild("", p.leaf())
		for !p.is(":") && !p.endOfExpr(modeFun) {
			n.AddChild("parameter", p.parsePattern())
			if !p.is(",") {
				break
			}
			n.AddChild("", p.leaf())
		}
		p.expect(n, ":")
		n.AddChild("body", p.parseExpr(modeImp))
		return n
	case p.is("let"):
		return p.parseLet(kindLet, m)
	case p.is("ask"):
		return p.parseLet(kindAskExpr, m)
	case p.is("with"):
		n := p.node(kindWithExpr)
		n.AddChild("", p.leaf())
		n.AddChild("type", p.identifier())
		p.braced(n, "body", m)
		return n
	case p.is("use"):
		return p.parseLet(kindUse, m)
	case p.is("match"):
		return p.parseCases(kindMatch, kindMatchCase, m)
	case p.is("fold"):
		return p.parseCases(kindFold, kindMatchCase, m)
	case p.is("switch"):
		return p.parseCases(kindSwitch, kindSwitchCase, m)
	case p.is("if"):
		return p.parseIfExpression(m)
	}
	return p.errorLeaf()
}

// parseSeq parses elements up to closer, accepting optional "," separators.
// The opening bracket has already been consumed into n.
func (p *parser) parseSeq(n *syntax.Node, closer, field string, m mode, elem func() *syntax.Node) {
	p.depth++
	for !p.is(closer) && !p.stop() {
		before := p.tok.start
		switch {
		case p.is(","):
			n.AddChild("", p.leaf())
		case p.endOfExpr(m):
			n.AddChild("", p.errorLeaf())
		default:
			p.fieldOverride = ""
			e := elem()
			f := field
			if p.fieldOverride != "" {
				f, p.fieldOverride = p.fieldOverride, ""
			}
			n.AddChild(f, e)
		}
		if p.tok.start == before {
			n.AddChild("", p.errorLeaf())
		}
	}
	p.depth--
	p.expect(n, closer)
}

func (p *parser) parseParen(m mode) *syntax.Node {
	start := p.tok.start
	open := p.leaf()
	if p.is(")") {
		n := syntax.NewNode(kindTuple, true, start, start)
		n.AddChild("", open)
		n.AddChild("", p.leaf())
		return n
	}
	if m == modeFun && p.tok.kind == tokOperator && prefixOperators[p.tok.text] {
		n := syntax.NewNode(kindOperation, true, start, start)
		n.AddChild("", open)
		n.AddChild("operator", p.leaf())
		p.parseSeq(n, ")", "argument", m, func() *syntax.Node { return p.parseExpr(m) })
		return n
	}

	p.depth++
	first := p.parseExpr(m)
	p.depth--
	var n *syntax.Node
	switch {
	case p.is(","):
		n = syntax.NewNode(kindTuple, true, start, start)
		n.AddChild("", open)
		n.AddChild("element", first)
		p.parseSeq(n, ")", "element", m, func() *syntax.Node { return p.parseExpr(m) })
	case p.is(")") || m == modeImp:
		n = syntax.NewNode(kindParenthesized, true, start, start)
		n.AddChild("", open)
		n.AddChild("", first)
		p.parseSeq(n, ")", "", m, func() *syntax.Node { return p.parseExpr(m) })
	default:
		n = syntax.NewNode(kindCall, true, start, start)
		n.AddChild("", open)
		n.AddChild("function", first)
		p.parseSeq(n, ")", "argument", m, func() *syntax.Node { return p.parseExpr(m) })
	}
	return n
}

func (p *parser) parseMapEntry(m mode) *syntax.Node {
	key := p.parseExpr(m)
	if !p.is(":") {
		return key
	}
	e := syntax.NewNode(kindMapEntry, true, key.StartByte(), key.StartByte())
	e.AddChild("key", key)
	e.AddChild("", p.leaf())
	e.AddChild("value", p.parseExpr(m))
	return e
}

// parseConstructor parses `Name { field: value, ... }` after Name.
func (p *parser) parseConstructor(name *syntax.Node) *syntax.Node {
	n := syntax.NewNode(kindConstructor, true, name.StartByte(), name.StartByte())
	n.AddChild("name", name)
	n.AddChild("", p.leaf())
	p.parseSeq(n, "}", "", modeImp, func() *syntax.Node {
		if p.tok.kind != tokIdent {
			return p.withField("value", p.parseExpr(modeImp))
		}
		id := p.leaf()
		if !p.is(":") {
			return p.withField("value", id)
		}
		n.AddChild("field", id)
		n.AddChild("", p.leaf())
		return p.withField("value", p.parseExpr(modeImp))
	})
	return n
}

func (p *parser) parseLet(kind string, m mode) *syntax.Node {
	n := p.node(kind)
	n.AddChild("", p.leaf())
	n.AddChild("pattern", p.parsePattern())
	p.expect(n, "=")
	n.AddChild("value", p.parseExpr(m))
	if p.is(";") {
		n.AddChild("", p.leaf())
	}
	n.AddChild("body", p.parseExpr(m))
	return n
}

// parseCases parses `match x { A: a; B: b }` and its fold and switch forms.
func (p *parser) parseCases(kind, caseKind string, m mode) *syntax.Node {
	n := p.node(kind)
	n.AddChild("", p.leaf())
	n.AddChild("argument", p.parseExpr(m))
	if p.is("=") {
		n.AddChild("", p.leaf())
		n.AddChild("value", p.parseExpr(m))
	}
	if !p.expect(n, "{") {
		return n
	}
	p.depth++
	for !p.is("}") && !p.stop() {
		before := p.tok.start
		if p.is(";") {
			n.AddChild("", p.leaf())
			continue
		}
		c := p.node(caseKind)
		if caseKind == kindSwitchCase {
			c.AddChild("", p.parseSwitchPattern())
		} else {
			c.AddChild("pattern", p.parsePattern())
		}
		p.expect(c, ":")
		c.AddChild("body", p.parseExpr(m))
		n.AddChild("", c)
		if p.tok.start == before {
			n.AddChild("", p.errorLeaf())
		}
	}
	p.depth--
	p.expect(n, "}")
	return n
}

func (p *parser) parseSwitchPattern() *syntax.Node {
	if p.endOfExpr(modeFun) {
		return p.missing(kindSwitchPattern)
	}
	if p.tok.kind != tokInteger && p.tok.kind != tokIdent {
		return p.errorLeaf()
	}
	n := syntax.NewNode(kindSwitchPattern, true, p.tok.start, p.tok.end)
	p.prevEnd = p.tok.end
	p.advance()
	return n
}

func (p *parser) parseIfExpression(m mode) *syntax.Node {
	n := p.node(kindIf)
	n.AddChild("", p.leaf())
	n.AddChild("condition", p.parseExpr(m))
	p.braced(n, "consequence", m)
	if p.expect(n, "else") {
		p.braced(n, "alternative", m)
	}
	return n
}

// braced parses `{ expr }` into n under field.
func (p *parser) braced(n *syntax.Node, field string, m mode) {
	if !p.expect(n, "{") {
		return
	}
	p.depth++
	n.AddChild(field, p.parseExpr(m))
	p.depth--
	p.expect(n, "}")
}

// parsePattern parses the binder positions of rules, lambdas and cases.
func (p *parser) parsePattern() *syntax.Node {
	if p.endOfExpr(modeFun) {
		return p.missing(kindIdentifier)
	}
	switch p.tok.kind {
	case tokIdent, tokInteger, tokFloat, tokString, tokChar, tokSymbol:
		return p.leaf()
	}
	switch {
	case p.is("*"):
		n := p.node(kindEra)
		n.AddChild("", p.leaf())
		return n
	case p.is("["):
		n := p.node(kindList)
		n.AddChild("", p.leaf())
		p.parseSeq(n, "]", "element", modeFun, p.parsePattern)
		return n
	case p.is("("):
		start := p.tok.start
		open := p.leaf()
		if p.is(")") {
			n := syntax.NewNode(kindTuple, true, start, start)
			n.AddChild("", open)
			n.AddChild("", p.leaf())
			return n
		}
		p.depth++
		first := p.parsePattern()
		p.depth--
		if p.is(",") {
			n := syntax.NewNode(kindTuple, true, start, start)
			n.AddChild("", open)
			n.AddChild("element", first)
			p.parseSeq(n, ")", "element", modeFun, p.parsePattern)
			return n
		}
		n := syntax.NewNode(kindCtrPattern, true, start, start)
		n.AddChild("", open)
		n.AddChild("constructor", first)
		p.parseSeq(n, ")", "argument", modeFun, p.parsePattern)
		return n
	}
	return p.errorLeaf()
}
