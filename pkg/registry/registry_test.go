package registry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type fakeRepository struct {
	regs []*Regulation
	err  error
}

func (f fakeRepository) Load(ctx context.Context) ([]*Regulation, error) {
	return f.regs, f.err
}

func mustParseRegulation(t *testing.T, src string) *Regulation {
	t.Helper()
	var reg Regulation
	if err := yaml.Unmarshal([]byte(src), &reg); err != nil {
		t.Fatalf("unmarshal regulation: %v", err)
	}
	return &reg
}

const zorgtoeslagYAML = `
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

const implementingYAML = `
$id: uitvoeringsregeling
regulatory_layer: MINISTERIELE_REGELING
legal_basis:
  law_id: zorgtoeslagwet
  article: "3"
articles:
  - number: "1"
    machine_readable:
      execution:
        output:
          - name: percentage
        actions:
          - output: percentage
            value: 5
`

func TestRegistryLoadIndexesByIDAndOutput(t *testing.T) {
	reg := New()
	law := mustParseRegulation(t, zorgtoeslagYAML)

	if err := reg.Load(context.Background(), fakeRepository{regs: []*Regulation{law}}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := reg.GetRegulation("zorgtoeslagwet"); !ok {
		t.Fatal("expected zorgtoeslagwet to be indexed")
	}
	if _, ok := reg.GetArticleByOutput("zorgtoeslagwet", "is_verzekerde"); !ok {
		t.Fatal("expected is_verzekerde output to be indexed")
	}
	if reg.LawCount() != 1 {
		t.Errorf("LawCount = %d, want 1", reg.LawCount())
	}
}

func TestRegistryLoadPropagatesRepositoryError(t *testing.T) {
	reg := New()
	wantErr := errors.New("disk on fire")
	err := reg.Load(context.Background(), fakeRepository{err: wantErr})
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("Load error = %v, want wrapping %v", err, wantErr)
	}
}

func TestFindImplementingRegulations(t *testing.T) {
	reg := New()
	law := mustParseRegulation(t, zorgtoeslagYAML)
	impl := mustParseRegulation(t, implementingYAML)
	if err := reg.Load(context.Background(), fakeRepository{regs: []*Regulation{law, impl}}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	found := reg.FindImplementingRegulations("zorgtoeslagwet", "3")
	if len(found) != 1 || found[0].LawID != "uitvoeringsregeling" {
		t.Errorf("FindImplementingRegulations = %+v", found)
	}
}

func TestResolveURICanonical(t *testing.T) {
	reg := New()
	law := mustParseRegulation(t, zorgtoeslagYAML)
	if err := reg.Load(context.Background(), fakeRepository{regs: []*Regulation{law}}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	gotLaw, article, field, err := reg.ResolveURI("regelrecht://zorgtoeslagwet/is_verzekerde#is_verzekerde")
	if err != nil {
		t.Fatalf("ResolveURI: %v", err)
	}
	if gotLaw.LawID != "zorgtoeslagwet" {
		t.Errorf("LawID = %q", gotLaw.LawID)
	}
	if article.Number != "3" {
		t.Errorf("Article.Number = %q", article.Number)
	}
	if field != "is_verzekerde" {
		t.Errorf("Field = %q", field)
	}
}

func TestResolveURILawNotFound(t *testing.T) {
	reg := New()
	_, _, _, err := reg.ResolveURI("regelrecht://missing/output")
	if !errors.Is(err, ErrLawNotFound) {
		t.Fatalf("expected ErrLawNotFound, got %v", err)
	}
}

func TestResolveURIOutputNotFound(t *testing.T) {
	reg := New()
	law := mustParseRegulation(t, zorgtoeslagYAML)
	if err := reg.Load(context.Background(), fakeRepository{regs: []*Regulation{law}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, _, _, err := reg.ResolveURI("regelrecht://zorgtoeslagwet/does_not_exist")
	if !errors.Is(err, ErrOutputNotFound) {
		t.Fatalf("expected ErrOutputNotFound, got %v", err)
	}
}

func TestRenderLegalBasisGraphContainsEdge(t *testing.T) {
	reg := New()
	law := mustParseRegulation(t, zorgtoeslagYAML)
	impl := mustParseRegulation(t, implementingYAML)
	if err := reg.Load(context.Background(), fakeRepository{regs: []*Regulation{law, impl}}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	dot := reg.RenderLegalBasisGraph()
	for _, want := range []string{"digraph LegalBasis", "uitvoeringsregeling", "zorgtoeslagwet"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}
