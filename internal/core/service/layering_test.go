package service

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// The core packages sit below every adapter: nothing under internal/core may
// import the HTTP or infrastructure layers.
func TestCoreDoesNotImportAdapters(t *testing.T) {
	forbidden := []string{
		"github.com/RafhaelH/rbac-api/internal/api",
		"github.com/RafhaelH/rbac-api/internal/infrastructure",
	}

	fset := token.NewFileSet()
	err := filepath.WalkDir("..", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range f.Imports {
			p, _ := strconv.Unquote(imp.Path.Value)
			for _, prefix := range forbidden {
				if p == prefix || strings.HasPrefix(p, prefix+"/") {
					t.Errorf("%s imports %s", path, p)
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk core: %v", err)
	}
}
