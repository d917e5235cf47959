package lyricsync

import (
	"go/ast"
	"go/build"
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"
)

// wasmFiles lists the non-test Go files of dir that a js/wasm build compiles.
func wasmFiles(t *testing.T, dir string) []string {
	t.Helper()

	ctx := build.Default
	ctx.GOOS = "js"
	ctx.GOARCH = "wasm"
	ctx.CgoEnabled = false

	pkg, err := ctx.ImportDir(dir, 0)
	if err != nil {
		t.Fatalf("ImportDir(%s) failed: %v", dir, err)
	}
	return pkg.GoFiles
}

func TestBrowserBuildFileSet(t *testing.T) {
	files := map[string]bool{}
	for _, f := range wasmFiles(t, ".") {
		files[f] = true
	}

	for _, want := range []string{"session.go", "service.go", "storage_adapter.go", "storage_open_wasm.go"} {
		if !files[want] {
			t.Errorf("Expected %s in the js/wasm build, got %v", want, files)
		}
	}
	if files["storage_open.go"] {
		t.Error("storage_open.go opens native stores and must be excluded from js/wasm builds")
	}
}

// The engine package must only use storage declarations that exist in the
// js/wasm build of the storage package.
func TestBrowserBuildStorageReferences(t *testing.T) {
	fset := token.NewFileSet()

	declared := map[string]bool{}
	storageDir := "storage"
	for _, name := range wasmFiles(t, storageDir) {
		f, err := parser.ParseFile(fset, filepath.Join(storageDir, name), nil, 0)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", name, err)
		}
		for ident := range f.Scope.Objects {
			declared[ident] = true
		}
	}
	for _, want := range []string{"Transcript", "ErrNotFound"} {
		if !declared[want] {
			t.Errorf("storage.%s is not declared in the js/wasm build", want)
		}
	}

	for _, name := range wasmFiles(t, ".") {
		f, err := parser.ParseFile(fset, name, nil, 0)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", name, err)
		}
		ast.Inspect(f, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == "storage" && !declared[sel.Sel.Name] {
				t.Errorf("%s uses storage.%s, which js/wasm builds do not have", name, sel.Sel.Name)
			}
			return true
		})
	}
}
