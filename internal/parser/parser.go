package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	gotypes "go/types"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/pkgtree-mcp/pkg/types"
)

// Parser extracts the package clause, imports and top-level declarations
// of Go source files
type Parser struct {
	fset *token.FileSet
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseFile reads and parses a Go source file
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseSource(filePath, content), nil
}

// ParseSource parses content as if it were read from filePath.
// Syntax errors are recorded on the result; whatever the partial AST holds
// is still extracted.
func (p *Parser) ParseSource(filePath string, content []byte) *types.ParseResult {
	result := &types.ParseResult{}

	file, err := parser.ParseFile(p.fset, filePath, content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		line, col := 0, 0
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			line, col = list[0].Pos.Line, list[0].Pos.Column
		}
		result.AddError(filePath, line, col, fmt.Sprintf("syntax error: %v", err))
	}
	if file == nil {
		return result
	}

	if file.Name != nil {
		result.PackageName = file.Name.Name
	}
	result.Imports = extractImports(file)

	e := &symbolExtractor{
		fset:        p.fset,
		packageName: result.PackageName,
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			e.extractFunction(d)
		case *ast.GenDecl:
			e.extractGenDecl(d)
		}
	}
	result.Symbols = e.symbols

	return result
}

// IsTestFile reports whether name is a _test.go file
func IsTestFile(name string) bool {
	return strings.HasSuffix(name, "_test.go")
}

func extractImports(file *ast.File) []types.Import {
	imports := make([]types.Import, 0, len(file.Imports))

	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			path = strings.Trim(imp.Path.Value, "`\"")
		}
		spec := types.Import{Path: path}
		if imp.Name != nil {
			spec.Alias = imp.Name.Name
		}
		imports = append(imports, spec)
	}

	return imports
}

type symbolExtractor struct {
	fset        *token.FileSet
	packageName string
	symbols     []types.Symbol
}

func (e *symbolExtractor) extractFunction(fn *ast.FuncDecl) {
	sym := types.Symbol{
		Name:       fn.Name.Name,
		Kind:       types.KindFunction,
		Package:    e.packageName,
		DocComment: docText(fn.Doc),
		Scope:      scopeOf(fn.Name.Name),
		Start:      e.position(fn.Pos()),
		End:        e.position(fn.End()),
	}

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sym.Kind = types.KindMethod
		sym.Receiver = receiverTypeName(fn.Recv.List[0].Type)
	}
	sym.Signature = functionSignature(fn)

	e.symbols = append(e.symbols, sym)
}

func (e *symbolExtractor) extractGenDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			doc := s.Doc
			if doc == nil {
				doc = decl.Doc
			}
			e.extractTypeSpec(s, doc)
		case *ast.ValueSpec:
			doc := s.Doc
			if doc == nil {
				doc = decl.Doc
			}
			e.extractValueSpec(s, doc, decl.Tok)
		}
	}
}

func (e *symbolExtractor) extractTypeSpec(spec *ast.TypeSpec, doc *ast.CommentGroup) {
	sym := types.Symbol{
		Name:       spec.Name.Name,
		Kind:       types.KindType,
		Package:    e.packageName,
		DocComment: docText(doc),
		Scope:      scopeOf(spec.Name.Name),
		Start:      e.position(spec.Pos()),
		End:        e.position(spec.End()),
	}

	switch t := spec.Type.(type) {
	case *ast.StructType:
		sym.Kind = types.KindStruct
		sym.Signature = fmt.Sprintf("type %s struct { ... } // %d fields", spec.Name.Name, t.Fields.NumFields())
	case *ast.InterfaceType:
		sym.Kind = types.KindInterface
		sym.Signature = fmt.Sprintf("type %s interface { ... } // %d methods", spec.Name.Name, t.Methods.NumFields())
	default:
		if spec.Assign.IsValid() {
			sym.Signature = fmt.Sprintf("type %s = %s", spec.Name.Name, gotypes.ExprString(spec.Type))
		} else {
			sym.Signature = fmt.Sprintf("type %s %s", spec.Name.Name, gotypes.ExprString(spec.Type))
		}
	}

	e.symbols = append(e.symbols, sym)

	if st, ok := spec.Type.(*ast.StructType); ok {
		e.extractStructFields(spec.Name.Name, st)
	}
}

func (e *symbolExtractor) extractStructFields(structName string, st *ast.StructType) {
	if st.Fields == nil {
		return
	}

	for _, field := range st.Fields.List {
		typeStr := gotypes.ExprString(field.Type)
		names := field.Names
		if len(names) == 0 {
			// Embedded field, named after its type
			if name := receiverTypeName(field.Type); name != "" {
				names = []*ast.Ident{{Name: name, NamePos: field.Pos()}}
			}
		}
		for _, name := range names {
			e.symbols = append(e.symbols, types.Symbol{
				Name:       name.Name,
				Kind:       types.KindField,
				Package:    e.packageName,
				Receiver:   structName,
				DocComment: docText(field.Doc),
				Scope:      scopeOf(name.Name),
				Signature:  fmt.Sprintf("%s %s", name.Name, typeStr),
				Start:      e.position(field.Pos()),
				End:        e.position(field.End()),
			})
		}
	}
}

func (e *symbolExtractor) extractValueSpec(spec *ast.ValueSpec, doc *ast.CommentGroup, tok token.Token) {
	kind := types.KindVar
	if tok == token.CONST {
		kind = types.KindConst
	}

	for _, name := range spec.Names {
		if name.Name == "_" {
			continue
		}
		sym := types.Symbol{
			Name:       name.Name,
			Kind:       kind,
			Package:    e.packageName,
			DocComment: docText(doc),
			Scope:      scopeOf(name.Name),
			Start:      e.position(spec.Pos()),
			End:        e.position(spec.End()),
		}

		switch {
		case spec.Type != nil:
			sym.Signature = fmt.Sprintf("%s %s %s", tok, name.Name, gotypes.ExprString(spec.Type))
		case len(spec.Values) > 0:
			sym.Signature = fmt.Sprintf("%s %s = ...", tok, name.Name)
		default:
			sym.Signature = fmt.Sprintf("%s %s", tok, name.Name)
		}

		e.symbols = append(e.symbols, sym)
	}
}

func (e *symbolExtractor) position(pos token.Pos) types.Position {
	p := e.fset.Position(pos)
	return types.Position{Line: p.Line, Column: p.Column}
}

// receiverTypeName strips pointers and type parameters: *List[T] -> List
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func functionSignature(fn *ast.FuncDecl) string {
	var sig strings.Builder

	sig.WriteString("func ")
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(gotypes.ExprString(fn.Recv.List[0].Type))
		sig.WriteString(") ")
	}
	sig.WriteString(fn.Name.Name)

	// ExprString renders a FuncType as "func(...) ..."
	sig.WriteString(strings.TrimPrefix(gotypes.ExprString(fn.Type), "func"))

	return sig.String()
}

func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

func scopeOf(name string) types.SymbolScope {
	if token.IsExported(name) {
		return types.ScopeExported
	}
	return types.ScopeUnexported
}
