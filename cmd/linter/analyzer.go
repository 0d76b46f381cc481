// Implements a static analysis tool that checks for:
// 1. Calls to the built-in panic anywhere in the code
// 2. Calls to log.Fatal/log.Fatalf/log.Fatalln or os.Exit outside of main.main
// 3. Imports of unsafe; wire layouts are written field by field with encoding/binary
package main

import (
	"go/ast"
	"go/types"
	"strconv"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports panics, process exits outside main and unsafe imports.
var Analyzer = &analysis.Analyzer{
	Name: "perflint",
	Doc:  "reports panic, log.Fatal/os.Exit outside of main.main, and imports of unsafe",
	Run:  run,
	Requires: []*analysis.Analyzer{
		inspect.Analyzer,
	},
}

var exitFuncs = map[string]bool{
	"log.Fatal":   true,
	"log.Fatalf":  true,
	"log.Fatalln": true,
	"os.Exit":     true,
}

func run(pass *analysis.Pass) (any, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.ImportSpec)(nil),
		(*ast.FuncDecl)(nil),
		(*ast.CallExpr)(nil),
	}

	inMain := false
	inspect.Preorder(nodeFilter, func(n ast.Node) {
		switch node := n.(type) {
		case *ast.ImportSpec:
			if path, err := strconv.Unquote(node.Path.Value); err == nil && path == "unsafe" {
				pass.Reportf(node.Pos(), "import of unsafe")
			}
		case *ast.FuncDecl:
			inMain = pass.Pkg.Name() == "main" && node.Recv == nil && node.Name.Name == "main"
		case *ast.CallExpr:
			checkCall(pass, node, inMain)
		}
	})

	return nil, nil
}

func checkCall(pass *analysis.Pass, call *ast.CallExpr, inMain bool) {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		if b, ok := pass.TypesInfo.Uses[fun].(*types.Builtin); ok && b.Name() == "panic" {
			pass.Reportf(fun.Pos(), "found usage of panic")
		}
	case *ast.SelectorExpr:
		if inMain {
			return
		}
		fn, ok := pass.TypesInfo.Uses[fun.Sel].(*types.Func)
		if !ok || fn.Pkg() == nil {
			return
		}
		name := fn.Pkg().Path() + "." + fn.Name()
		if exitFuncs[name] {
			pass.Reportf(call.Pos(), "found usage of %s outside of main function", name)
		}
	}
}
