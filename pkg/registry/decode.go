package registry

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

var knownTopLevelFields = map[string]bool{
	"$id": true, "uuid": true, "regulatory_layer": true, "name": true,
	"publication_date": true, "valid_from": true, "bwb_id": true, "url": true,
	"gemeente_code": true, "jaar": true, "officiele_titel": true,
	"legal_basis": true, "articles": true,
}

// UnmarshalYAML decodes a regulation document, collecting any top-level
// field not named on the struct into Extras (so delegation/resolve
// attribute matching can still reach identifiers like custom municipal
// codes) and normalizing legal_basis's single-object-or-list wire forms.
func (r *Regulation) UnmarshalYAML(node *yaml.Node) error {
	type plain Regulation
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = Regulation(p)

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	r.Extras = make(map[string]any)
	for k, v := range raw {
		if !knownTopLevelFields[k] {
			r.Extras[k] = v
		}
	}

	r.LegalBasis = normalizeLegalBasis(r.LegalBasisRaw)
	return nil
}

// normalizeLegalBasis accepts both a single {law_id, article} mapping and a
// list of such mappings.
func normalizeLegalBasis(raw any) []LegalBasis {
	switch v := raw.(type) {
	case map[string]any:
		if lb, ok := legalBasisFromMap(v); ok {
			return []LegalBasis{lb}
		}
	case []any:
		out := make([]LegalBasis, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				if lb, ok := legalBasisFromMap(m); ok {
					out = append(out, lb)
				}
			}
		}
		return out
	}
	return nil
}

func legalBasisFromMap(m map[string]any) (LegalBasis, bool) {
	lawID, ok1 := m["law_id"].(string)
	article, ok2 := m["article"]
	if !ok1 || !ok2 {
		return LegalBasis{}, false
	}
	articleStr, ok := article.(string)
	if !ok {
		if n, ok := article.(int); ok {
			articleStr = strconv.Itoa(n)
		} else {
			return LegalBasis{}, false
		}
	}
	return LegalBasis{LawID: lawID, Article: articleStr}, true
}
