// Package registry models the regulation document tree (regulations,
// articles, execution blocks) and indexes loaded documents by identifier,
// by produced output, and by declared legal basis.
package registry

import (
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/expr"
	"github.com/MinBZK/regelrecht-mvp-sub000/pkg/types"
)

// RegulatoryLayer classifies a regulation's place in the Dutch legislative
// hierarchy. Only MINISTERIELE_REGELING participates in legal-basis
// dispatch (§4.4); every layer can carry legal_basis entries and delegation
// targets.
type RegulatoryLayer string

const (
	LayerWet                   RegulatoryLayer = "WET"
	LayerAMvB                  RegulatoryLayer = "AMVB"
	LayerMinisterieleRegeling  RegulatoryLayer = "MINISTERIELE_REGELING"
	LayerBeleidsregel          RegulatoryLayer = "BELEIDSREGEL"
	LayerGemeentelijkeVerordening RegulatoryLayer = "GEMEENTELIJKE_VERORDENING"
)

// LegalBasis declares that the owning regulation implements a specific
// article of another regulation.
type LegalBasis struct {
	LawID   string `yaml:"law_id"`
	Article string `yaml:"article"`
}

// Regulation is a loaded, parsed regulation document.
type Regulation struct {
	LawID           string          `yaml:"$id"`
	UUID            string          `yaml:"uuid"`
	RegulatoryLayer RegulatoryLayer `yaml:"regulatory_layer"`
	Name            string          `yaml:"name"`
	PublicationDate string          `yaml:"publication_date"`
	ValidFrom       string          `yaml:"valid_from"`
	BwbID           string          `yaml:"bwb_id"`
	URL             string          `yaml:"url"`
	GemeenteCode    string          `yaml:"gemeente_code"`
	Jaar            int             `yaml:"jaar"`
	OfficieleTitel  string          `yaml:"officiele_titel"`

	LegalBasisRaw any          `yaml:"legal_basis,omitempty"`
	LegalBasis    []LegalBasis `yaml:"-"`

	Articles []*Article `yaml:"articles"`

	// Extras holds any top-level field not named above, so that
	// FindDelegatedRegulation's select_on attribute matching can reach
	// fields this struct does not close over by name.
	Extras map[string]any `yaml:"-"`

	// SourcePath records which file this regulation was loaded from, for
	// diagnostics and duplicate-overwrite logging.
	SourcePath string `yaml:"-"`
}

// Attribute resolves a delegation/resolve select_on attribute name against
// the regulation: the closed set of named struct fields first, then the
// open Extras map.
func (r *Regulation) Attribute(name string) (any, bool) {
	switch name {
	case "law_id", "$id":
		return r.LawID, true
	case "gemeente_code":
		return r.GemeenteCode, true
	case "jaar":
		return r.Jaar, true
	case "bwb_id":
		return r.BwbID, true
	case "regulatory_layer":
		return string(r.RegulatoryLayer), true
	case "officiele_titel":
		return r.OfficieleTitel, true
	case "uuid":
		return r.UUID, true
	}
	if r.Extras != nil {
		if v, ok := r.Extras[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Article is a numbered section of a regulation, optionally carrying a
// machine-readable execution block.
type Article struct {
	Number          string           `yaml:"number"`
	Text            string           `yaml:"text"`
	URL             string           `yaml:"url,omitempty"`
	MachineReadable *MachineReadable `yaml:"machine_readable,omitempty"`

	// LegalBasisFor is the defaults-with-fallback clause a delegating
	// article carries, consulted when no municipal delegate matches.
	LegalBasisFor *LegalBasisFor `yaml:"legal_basis_for,omitempty"`
}

// OutputNames returns the names this article's execution block produces,
// empty if the article is purely narrative.
func (a *Article) OutputNames() []string {
	if a.MachineReadable == nil || a.MachineReadable.Execution == nil {
		return nil
	}
	names := make([]string, 0, len(a.MachineReadable.Execution.Output))
	for _, o := range a.MachineReadable.Execution.Output {
		names = append(names, o.Name)
	}
	return names
}

// MachineReadable is the annotation payload attached to an article.
type MachineReadable struct {
	Definitions map[string]any `yaml:"definitions,omitempty"`
	Execution   *Execution     `yaml:"execution,omitempty"`
}

// Execution is the four-part computation an article declares: caller
// parameters, externally/cross-regulation sourced inputs, produced
// outputs, and the ordered action list that computes them.
type Execution struct {
	Parameters []ParamSpec  `yaml:"parameters,omitempty"`
	Input      []InputSpec  `yaml:"input,omitempty"`
	Output     []OutputSpec `yaml:"output"`
	Actions    []expr.Action `yaml:"actions"`
}

// ParamSpec is one caller-supplied parameter an article's execution block
// accepts.
type ParamSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// OutputSpec is one named value an article's execution block produces,
// with an optional type specification enforced after assignment.
type OutputSpec struct {
	Name     string          `yaml:"name"`
	TypeSpec *types.TypeSpec `yaml:"type_spec,omitempty"`
}

// DelegationSpec names the implementing regulation a delegated input
// resolves to, selected by attribute match.
type DelegationSpec struct {
	LawID    string             `yaml:"law_id"`
	Article  string             `yaml:"article"`
	SelectOn []SelectCriterion  `yaml:"select_on,omitempty"`
}

// SelectCriterion is one {name, value} attribute match of a delegation's
// select_on list.
type SelectCriterion struct {
	Name  string    `yaml:"name"`
	Value expr.Expr `yaml:"value"`
}

// RegulationSource is a cross-regulation call: invoke another regulation's
// output, or (if Delegation is set) find the implementing municipal
// regulation first. The legacy fields (ArticleRef/Ref/URL) implement the
// same-document and backward-compatible reference forms still accepted
// alongside the structured regulation/output form.
type RegulationSource struct {
	Regulation string                `yaml:"regulation,omitempty"`
	Delegation *DelegationSpec       `yaml:"delegation,omitempty"`
	Output     string                `yaml:"output,omitempty"`
	Parameters map[string]expr.Expr  `yaml:"parameters,omitempty"`

	ArticleRef string `yaml:"article,omitempty"` // "law_id.output"
	Ref        string `yaml:"ref,omitempty"`     // "#output"
	URL        string `yaml:"url,omitempty"`
}

// InputSpec is one named value an article's execution block needs, either
// supplied by the caller's parameters/definitions, resolved from a
// cross-regulation/delegation source, a legacy internal reference, or an
// external data source.
type InputSpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`

	Source *RegulationSource `yaml:"source,omitempty"`
}

// LegalBasisFor is the {defaults} fallback clause consulted when a
// delegation finds no implementing regulation.
type LegalBasisFor struct {
	Defaults *DefaultsClause `yaml:"defaults,omitempty"`
}

// DefaultsClause is a minimal synthetic article — definitions plus an
// action list producing the requested outputs — run in place of a missing
// municipal delegate.
type DefaultsClause struct {
	Definitions map[string]any `yaml:"definitions,omitempty"`
	Output      []OutputSpec   `yaml:"output,omitempty"`
	Actions     []expr.Action  `yaml:"actions"`
}
