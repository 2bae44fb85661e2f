package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleLawYAML = `
$id: zorgtoeslagwet
regulatory_layer: WET
articles:
  - number: "3"
    machine_readable:
      execution:
        output:
          - name: is_verzekerde
        actions:
          - output: is_verzekerde
            value: true
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadCategorySubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wet", "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root)
	regs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regs) != 1 || regs[0].LawID != "zorgtoeslagwet" {
		t.Fatalf("Load = %+v, want one zorgtoeslagwet regulation", regs)
	}
	if regs[0].UUID == "" {
		t.Error("expected a UUID to be auto-assigned")
	}
}

func TestLoadFlatDirectoryFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root)
	regs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regs) != 1 || regs[0].LawID != "zorgtoeslagwet" {
		t.Fatalf("Load = %+v, want one zorgtoeslagwet regulation", regs)
	}
}

func TestLoadWithCustomCategories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "custom", "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root, WithCategories("custom"))
	regs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regs) != 1 {
		t.Fatalf("Load = %+v, want one regulation from the custom category", regs)
	}
}

func TestLoadSkipsMalformedFileButLoadsRest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wet", "broken.yaml"), "not: [valid yaml")
	writeFile(t, filepath.Join(root, "wet", "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root)
	regs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regs) != 1 || regs[0].LawID != "zorgtoeslagwet" {
		t.Fatalf("Load = %+v, want only the well-formed regulation", regs)
	}
}

func TestLoadRejectsMissingID(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wet", "noid.yaml"), `
regulatory_layer: WET
articles: []
`)

	repo := New(root)
	regs, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(regs) != 0 {
		t.Fatalf("Load = %+v, want the missing-$id file to be skipped", regs)
	}
}

func TestLoadNonexistentRoot(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a nonexistent root")
	}
}
