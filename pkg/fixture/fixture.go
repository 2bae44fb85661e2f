// Package fixture implements the golden-fixture contract: a declaration of
// test cases (one or more regulation YAML documents, a target output, and
// an expected result) plus a runner that executes them through the engine
// or service and returns the canonicalised outcome. Run does not compare
// that outcome against a Case's Expected field; nothing in this package
// does.
package fixture

// LawSpec is one regulation document contributed to a multi-law Case.
type LawSpec struct {
	LawID string
	YAML  string
}

// Case is one golden-fixture test case: either a single inline law YAML
// document or several (for cross-regulation scenarios), a target
// (law_id, output_name), caller parameters, a calculation date, and the
// expected outcome.
type Case struct {
	ID          string
	Description string
	Category    string

	// Single-law form.
	LawYAML string

	// Multi-law form: when set, MultiLaw is implied and LawYAML is ignored.
	Laws []LawSpec

	LawID           string
	OutputName      string
	Parameters      map[string]any
	CalculationDate string

	ExpectError bool
	Expected    Expected
}

// MultiLaw reports whether c declares more than one regulation document.
func (c Case) MultiLaw() bool {
	return len(c.Laws) > 0
}

// Expected is the recorded golden outcome a Case is compared against.
type Expected struct {
	Success        bool
	ArticleNumber  string
	LawID          string
	Outputs        map[string]any
	ResolvedInputs map[string]any
	ErrorType      string
}
