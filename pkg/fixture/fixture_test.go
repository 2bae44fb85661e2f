package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arithmeticLawYAML = `
$id: belastingwet
regulatory_layer: WET
articles:
  - number: "1"
    machine_readable:
      execution:
        parameters:
          - name: bruto_inkomen
        output:
          - name: netto_inkomen
        actions:
          - output: netto_inkomen
            operation: SUBTRACT
            values:
              - "$bruto_inkomen"
              - 1000
`

func TestRunArithmetic(t *testing.T) {
	out, err := Run(context.Background(), Case{
		LawYAML:    arithmeticLawYAML,
		OutputName: "netto_inkomen",
		Parameters: map[string]any{"bruto_inkomen": 5000.0},
	})
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 4000.0, out.Outputs["netto_inkomen"])
}

const conditionalLawYAML = `
$id: kinderbijslagwet
regulatory_layer: WET
articles:
  - number: "2"
    machine_readable:
      execution:
        parameters:
          - name: leeftijd
        output:
          - name: in_aanmerking
        actions:
          - output: in_aanmerking
            operation: LESS_THAN
            subject: "$leeftijd"
            value: 18
`

func TestRunConditional(t *testing.T) {
	out, err := Run(context.Background(), Case{
		LawYAML:    conditionalLawYAML,
		OutputName: "in_aanmerking",
		Parameters: map[string]any{"leeftijd": 10.0},
	})
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, true, out.Outputs["in_aanmerking"])
}

const divisionLawYAML = `
$id: deelwet
regulatory_layer: WET
articles:
  - number: "1"
    machine_readable:
      execution:
        parameters:
          - name: teller
          - name: noemer
        output:
          - name: quotient
        actions:
          - output: quotient
            operation: DIVIDE
            values:
              - "$teller"
              - "$noemer"
`

func TestRunDivisionByZero(t *testing.T) {
	out, err := Run(context.Background(), Case{
		LawYAML:    divisionLawYAML,
		OutputName: "quotient",
		Parameters: map[string]any{"teller": 10.0, "noemer": 0.0},
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "DivisionByZero", out.ErrorType)
}

const inkomenswetYAML = `
$id: inkomenswet
regulatory_layer: WET
articles:
  - number: "1"
    machine_readable:
      execution:
        output:
          - name: bruto_inkomen
        actions:
          - output: bruto_inkomen
            value: 3000
`

const toeslagwetYAML = `
$id: toeslagwet
regulatory_layer: WET
articles:
  - number: "1"
    machine_readable:
      execution:
        output:
          - name: heeft_recht
        input:
          - name: inkomen
            source:
              regulation: inkomenswet
              output: bruto_inkomen
        actions:
          - output: heeft_recht
            operation: LESS_THAN
            subject: "$inkomen"
            value: 4000
`

func TestRunCrossRegulationCall(t *testing.T) {
	out, err := Run(context.Background(), Case{
		Laws: []LawSpec{
			{LawID: "inkomenswet", YAML: inkomenswetYAML},
			{LawID: "toeslagwet", YAML: toeslagwetYAML},
		},
		LawID:      "toeslagwet",
		OutputName: "heeft_recht",
	})
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, true, out.Outputs["heeft_recht"])
}

const bijstandswetDefaultsYAML = `
$id: bijstandswet
regulatory_layer: WET
articles:
  - number: "10"
    legal_basis_for:
      defaults:
        output:
          - name: bedrag
        actions:
          - output: bedrag
            value: 500
  - number: "20"
    machine_readable:
      execution:
        parameters:
          - name: gemeente_code
        output:
          - name: uitkering
        input:
          - name: bedrag
            source:
              delegation:
                law_id: bijstandswet
                article: "10"
                select_on:
                  - name: gemeente_code
                    value: "$gemeente_code"
              output: bedrag
        actions:
          - output: uitkering
            value: "$bedrag"
`

func TestRunDelegationWithDefaultsFallback(t *testing.T) {
	out, err := Run(context.Background(), Case{
		Laws: []LawSpec{
			{LawID: "bijstandswet", YAML: bijstandswetDefaultsYAML},
		},
		LawID:      "bijstandswet",
		OutputName: "uitkering",
		Parameters: map[string]any{"gemeente_code": "002"},
	})
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, 500, out.Outputs["uitkering"])
}

const bijstandswetMandatoryYAML = `
$id: bijstandswet
regulatory_layer: WET
articles:
  - number: "40"
    legal_basis_for: {}
  - number: "41"
    machine_readable:
      execution:
        parameters:
          - name: gemeente_code
        output:
          - name: uitkering
        input:
          - name: bedrag
            source:
              delegation:
                law_id: bijstandswet
                article: "40"
                select_on:
                  - name: gemeente_code
                    value: "$gemeente_code"
              output: bedrag
        actions:
          - output: uitkering
            value: "$bedrag"
`

func TestRunDelegationMandatoryMissingFails(t *testing.T) {
	out, err := Run(context.Background(), Case{
		Laws: []LawSpec{
			{LawID: "bijstandswet", YAML: bijstandswetMandatoryYAML},
		},
		LawID:      "bijstandswet",
		OutputName: "uitkering",
		Parameters: map[string]any{"gemeente_code": "002"},
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "NoLegalBasis", out.ErrorType)
}

func TestRunOutputNotFoundInSingleLaw(t *testing.T) {
	out, err := Run(context.Background(), Case{
		LawYAML:    arithmeticLawYAML,
		OutputName: "does_not_exist",
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "OutputNotFound", out.ErrorType)
}
