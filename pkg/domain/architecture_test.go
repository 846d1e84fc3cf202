package domain

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestDomainImportsNoInternalPackages ensures the domain package stays at
// the bottom of the dependency graph: persistence backends and the service
// layer depend on it, never the other way around.
func TestDomainImportsNoInternalPackages(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports}
	pkgs, err := packages.Load(cfg, "metacore/pkg/domain")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if strings.HasPrefix(importPath, "metacore/internal") {
				violations = append(violations, pkg.PkgPath+": "+importPath)
			}
		}
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import: %s", v)
		}
		t.Fatalf("found %d forbidden imports of internal packages", len(violations))
	}
}
