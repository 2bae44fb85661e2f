package uri

import "testing"

func TestBuild(t *testing.T) {
	cases := []struct {
		lawID, output, field, want string
	}{
		{"zorgtoeslag", "is_verzekerde", "", "regelrecht://zorgtoeslag/is_verzekerde"},
		{"zorgtoeslag", "is_verzekerde", "bsn", "regelrecht://zorgtoeslag/is_verzekerde#bsn"},
	}
	for _, c := range cases {
		if got := Build(c.lawID, c.output, c.field); got != c.want {
			t.Errorf("Build(%q,%q,%q) = %q, want %q", c.lawID, c.output, c.field, got, c.want)
		}
	}
}

func TestParseCanonical(t *testing.T) {
	ref, err := Parse("regelrecht://zorgtoeslag/is_verzekerde#bsn")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Reference{LawID: "zorgtoeslag", Output: "is_verzekerde", Field: "bsn"}
	if ref != want {
		t.Errorf("Parse = %+v, want %+v", ref, want)
	}
}

func TestParseCanonicalNoField(t *testing.T) {
	ref, err := Parse("regelrecht://zorgtoeslag/is_verzekerde")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ref.Field != "" {
		t.Errorf("Field = %q, want empty", ref.Field)
	}
}

func TestParseFilePath(t *testing.T) {
	ref, err := Parse("regulation/nl/wet/zorgtoeslagwet#is_verzekerde")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Reference{LawID: "zorgtoeslagwet", Output: "is_verzekerde", Field: "is_verzekerde"}
	if ref != want {
		t.Errorf("Parse = %+v, want %+v", ref, want)
	}
}

func TestParseFilePathNoFragmentDefaultsOutputToLawID(t *testing.T) {
	ref, err := Parse("regulation/nl/wet/zorgtoeslagwet")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if ref.Output != ref.LawID {
		t.Errorf("Output = %q, want %q (law id)", ref.Output, ref.LawID)
	}
}

func TestParseRejectsUnknownForm(t *testing.T) {
	if _, err := Parse("not-a-uri"); err == nil {
		t.Fatal("expected error for unrecognized reference form")
	}
}

func TestParseRejectsMalformedCanonical(t *testing.T) {
	if _, err := Parse("regelrecht://missing-slash"); err == nil {
		t.Fatal("expected error for missing '/' between law id and output")
	}
}

func TestStringRoundTrips(t *testing.T) {
	canonical := "regelrecht://zorgtoeslag/is_verzekerde#bsn"
	ref, err := Parse(canonical)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := ref.String(); got != canonical {
		t.Errorf("round trip = %q, want %q", got, canonical)
	}
}
