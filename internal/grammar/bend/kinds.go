package bend

// Named node kinds produced by the parser.
const (
	kindSourceFile        = "source_file"
	kindComment           = "comment"
	kindIdentifier        = "identifier"
	kindInteger           = "integer"
	kindFloat             = "float"
	kindString            = "string"
	kindCharacter         = "character"
	kindSymbol            = "symbol"
	kindEra               = "era"
	kindOSPath            = "os_path"
	kindImportName        = "import_name"
	kindImportFrom        = "import_from"
	kindFunFunction       = "fun_function_definition"
	kindImpFunction       = "imp_function_definition"
	kindParameters        = "parameters"
	kindFunType           = "fun_type_definition"
	kindFunTypeCtor       = "fun_type_constructor"
	kindFunTypeCtorFields = "fun_type_constructor_fields"
	kindImpType           = "imp_type_definition"
	kindImpTypeCtor       = "imp_type_constructor"
	kindImpTypeCtorField  = "imp_type_constructor_field"
	kindObject            = "object_definition"
	kindObjectField       = "object_field"
	kindHvm               = "hvm_definition"
	kindHvmCode           = "hvm_code"
	kindCall              = "call_expression"
	kindOperation         = "operation"
	kindBinary            = "binary_expression"
	kindUnary             = "unary_expression"
	kindParenthesized     = "parenthesized_expression"
	kindTuple             = "tuple"
	kindList              = "list"
	kindMap               = "map"
	kindMapEntry          = "map_entry"
	kindLambda            = "lambda"
	kindLet               = "let_expression"
	kindUse               = "use_expression"
	kindAskExpr           = "ask_expression"
	kindWithExpr          = "with_expression"
	kindMatch             = "match_expression"
	kindFold              = "fold_expression"
	kindSwitch            = "switch_expression"
	kindIf                = "if_expression"
	kindMatchCase         = "match_case"
	kindSwitchCase        = "switch_case"
	kindSwitchPattern     = "switch_pattern"
	kindConstructor       = "constructor"
	kindCtrPattern        = "ctr_pattern"
	kindBlock             = "block"
	kindReturnStmt        = "return_statement"
	kindAssignStmt        = "assignment_statement"
	kindExprStmt          = "expression_statement"
	kindIfStmt            = "if_statement"
	kindElifClause        = "elif_clause"
	kindElseClause        = "else_clause"
	kindForStmt           = "for_statement"
	kindMatchStmt         = "match_statement"
	kindFoldStmt          = "fold_statement"
	kindSwitchStmt        = "switch_statement"
	kindBendStmt          = "bend_statement"
	kindWhenClause        = "when_clause"
	kindWithStmt          = "with_statement"
	kindOpenStmt          = "open_statement"
	kindUseStmt           = "use_statement"
	kindAskStmt           = "ask_statement"
	kindError             = "ERROR"
)

var namedKinds = set(
	kindSourceFile, kindComment, kindIdentifier, kindInteger, kindFloat,
	kindString, kindCharacter, kindSymbol, kindEra, kindOSPath,
	kindImportName, kindImportFrom, kindFunFunction, kindImpFunction,
	kindParameters, kindFunType, kindFunTypeCtor, kindFunTypeCtorFields,
	kindImpType, kindImpTypeCtor, kindImpTypeCtorField, kindObject,
	kindObjectField, kindHvm, kindHvmCode, kindCall, kindOperation,
	kindBinary, kindUnary, kindParenthesized, kindTuple, kindList, kindMap,
	kindMapEntry, kindLambda, kindLet, kindUse, kindAskExpr, kindWithExpr, kindMatch, kindFold,
	kindSwitch, kindIf, kindMatchCase, kindSwitchCase, kindSwitchPattern,
	kindConstructor, kindCtrPattern, kindBlock, kindReturnStmt,
	kindAssignStmt, kindExprStmt, kindIfStmt, kindElifClause,
	kindElseClause, kindForStmt, kindMatchStmt, kindFoldStmt,
	kindSwitchStmt, kindBendStmt, kindWhenClause, kindWithStmt,
	kindOpenStmt, kindUseStmt, kindAskStmt, kindError,
)

// keywords are reserved words. They lex as anonymous tokens, never as
// identifiers.
var keywords = set(
	"def", "return", "if", "elif", "else", "for", "in", "match", "case",
	"switch", "bend", "when", "fold", "with", "open", "use", "ask", "let",
	"type", "object", "hvm", "import", "from", "lambda",
)

// operators lists every punctuation and operator token, longest first
// within each leading byte so the scanner can take the first match.
var operators = []string{
	"**", "*=", "*",
	"==", "=",
	"!=", "!",
	"<=", "<<", "<-", "<",
	">=", ">>", ">",
	"+=", "+",
	"->", "-=", "-",
	"/=", "/",
	"%=", "%",
	"&=", "&",
	"|=", "|",
	"^=", "^",
	"@=", "@",
	"~", ":", ",", ";", "(", ")", "[", "]", "{", "}", ".", "?",
}

var anonymousKinds = func() map[string]bool {
	m := set(operators...)
	for k := range keywords {
		m[k] = true
	}
	m["λ"] = true
	return m
}()

var fields = set(
	"name", "pattern", "body", "parameters", "return_type", "code",
	"function", "argument", "operator", "left", "right", "element",
	"key", "value", "parameter", "case", "condition", "consequence",
	"alternative", "field", "variable", "iterable", "type", "constructor",
	"binding",
)

// binaryPrecedence ranks the infix operators of imperative expressions.
var binaryPrecedence = map[string]int{
	"==": 1, "!=": 1, "<": 1, "<=": 1, ">": 1, ">=": 1,
	"|":  2,
	"^":  3,
	"&":  4,
	"<<": 5, ">>": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "%": 7,
	"**": 8,
}

var assignOperators = set("=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=")

// prefixOperators open a fun-style operation such as (+ a b).
var prefixOperators = set(
	"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=",
	"&", "|", "^", "**", "<<", ">>",
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
