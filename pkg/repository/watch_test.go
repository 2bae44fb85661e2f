package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/registry"
)

func TestWatcherReloadsOnFileWrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wet", "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root)
	reg := registry.New()
	if err := reg.Load(context.Background(), repo); err != nil {
		t.Fatalf("initial Load: %v", err)
	}
	if reg.LawCount() != 1 {
		t.Fatalf("LawCount = %d, want 1", reg.LawCount())
	}

	reloaded := make(chan error, 4)
	w := NewWatcher(repo, reg, WithOnReload(func(err error) {
		reloaded <- err
	}))
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, filepath.Join(root, "wet", "bijstandswet.yaml"), `
$id: bijstandswet
regulatory_layer: WET
articles:
  - number: "1"
    machine_readable:
      execution:
        output:
          - name: bedrag
        actions:
          - output: bedrag
            value: 100
`)

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload reported error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload after file write")
	}

	if reg.LawCount() != 2 {
		t.Errorf("LawCount = %d, want 2 after reload", reg.LawCount())
	}
}

func TestWatcherIgnoresNonYAMLFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wet", "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root)
	reg := registry.New()
	if err := reg.Load(context.Background(), repo); err != nil {
		t.Fatalf("initial Load: %v", err)
	}

	reloaded := make(chan error, 4)
	w := NewWatcher(repo, reg, WithOnReload(func(err error) {
		reloaded <- err
	}))
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "wet", "notes.txt"), []byte("not a regulation"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case err := <-reloaded:
		t.Fatalf("unexpected reload triggered by a non-YAML file: %v", err)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherStopAfterStart(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "wet", "zorgtoeslagwet.yaml"), sampleLawYAML)

	repo := New(root)
	reg := registry.New()
	if err := reg.Load(context.Background(), repo); err != nil {
		t.Fatalf("initial Load: %v", err)
	}

	w := NewWatcher(repo, reg)
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
}
