package analyzer

import (
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const (
	analyzerName = "strictcalls"
	analyzerDoc  = "reports panic, log.Fatal and os.Exit outside main.main, and math/rand imports"
)

// Analyzer checks for calls that bypass error returns and for non-cryptographic randomness.
var Analyzer = &analysis.Analyzer{
	Name:     analyzerName,
	Doc:      analyzerDoc,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// exitingCalls maps a package path to the functions that terminate the process.
var exitingCalls = map[string]map[string]bool{
	"log":                       {"Fatal": true, "Fatalf": true, "Fatalln": true},
	"github.com/rs/zerolog/log": {"Fatal": true},
	"os":                        {"Exit": true},
}

var forbiddenImports = map[string]string{
	"math/rand":    "math/rand is forbidden, use crypto/rand",
	"math/rand/v2": "math/rand/v2 is forbidden, use crypto/rand",
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.ImportSpec)(nil),
		(*ast.CallExpr)(nil),
	}

	insp.WithStack(nodeFilter, func(node ast.Node, push bool, stack []ast.Node) bool {
		if !push || isTestFile(pass, node) {
			return true
		}

		switch n := node.(type) {
		case *ast.ImportSpec:
			checkImport(pass, n)
		case *ast.CallExpr:
			checkCall(pass, n, stack)
		}

		return true
	})

	return nil, nil
}

func isTestFile(pass *analysis.Pass, node ast.Node) bool {
	return strings.HasSuffix(pass.Fset.Position(node.Pos()).Filename, "_test.go")
}

func checkImport(pass *analysis.Pass, spec *ast.ImportSpec) {
	path, err := strconv.Unquote(spec.Path.Value)
	if err != nil {
		return
	}

	if msg, ok := forbiddenImports[path]; ok {
		pass.Reportf(spec.Pos(), "%s", msg)
	}
}

func checkCall(pass *analysis.Pass, callExpr *ast.CallExpr, stack []ast.Node) {
	switch fn := callExpr.Fun.(type) {
	case *ast.Ident:
		if fn.Name == "panic" && isBuiltin(pass, fn) {
			pass.Reportf(callExpr.Pos(), "panic is forbidden")
		}
	case *ast.SelectorExpr:
		checkSelectorExpr(pass, fn, callExpr, stack)
	}
}

func isBuiltin(pass *analysis.Pass, ident *ast.Ident) bool {
	if pass.TypesInfo == nil {
		return true
	}
	_, ok := pass.TypesInfo.Uses[ident].(*types.Builtin)
	return ok
}

func checkSelectorExpr(pass *analysis.Pass, selectorExpr *ast.SelectorExpr, callExpr *ast.CallExpr, stack []ast.Node) {
	ident, ok := selectorExpr.X.(*ast.Ident)
	if !ok || pass.TypesInfo == nil {
		return
	}

	pkgName, ok := pass.TypesInfo.Uses[ident].(*types.PkgName)
	if !ok {
		return
	}

	pkgPath := pkgName.Imported().Path()
	fn := selectorExpr.Sel.Name

	if !exitingCalls[pkgPath][fn] {
		return
	}

	if !isInMainFunction(pass, stack) {
		pass.Reportf(callExpr.Pos(), "%s.%s is forbidden outside main function", pkgName.Name(), fn)
	}
}

// isInMainFunction reports whether the innermost enclosing declaration is
// func main of package main. Closures inside main count as main.
func isInMainFunction(pass *analysis.Pass, stack []ast.Node) bool {
	if pass.Pkg.Name() != "main" {
		return false
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if funcDecl, ok := stack[i].(*ast.FuncDecl); ok {
			return funcDecl.Recv == nil && funcDecl.Name.Name == "main"
		}
	}

	return false
}
