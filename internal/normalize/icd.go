// internal/normalize/icd.go
package normalize

import (
	"sort"
	"strings"
	"unicode"
)

/*
 * ICD relation extraction.
 *
 * Relation records (drug-to-diagnosis links) carry ICD data either as a
 * nested "icd" object or flattened onto the relation with an icd prefix
 * (icdCode, icd_name_en, ICD-Description). Flat keys are matched by
 * lower-casing, stripping everything but letters and digits, requiring an
 * "icd" prefix and looking the remainder up in icdSuffixes.
 *
 * A synthetic record is only returned when at least one recognized field has
 * a non-blank value, so a relation without ICD data never renders as an
 * empty diagnosis row.
 */

// IcdDetails is a diagnosis code record.
type IcdDetails struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	NameEn      string `json:"nameEn"`
	NameAr      string `json:"nameAr"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Version     string `json:"version"`
}

// DisplayName prefers the English name, then the generic name, then the code.
func (d IcdDetails) DisplayName() string {
	for _, s := range []string{d.NameEn, d.Name, d.Description, d.Code} {
		if s != "" {
			return s
		}
	}
	return ""
}

// icdSuffixes maps a normalized flat-key suffix to its field setter.
var icdSuffixes = map[string]func(*IcdDetails, string){
	"id":          func(d *IcdDetails, v string) { d.ID = v },
	"code":        func(d *IcdDetails, v string) { d.Code = v },
	"nameen":      func(d *IcdDetails, v string) { d.NameEn = v },
	"namear":      func(d *IcdDetails, v string) { d.NameAr = v },
	"name":        func(d *IcdDetails, v string) { d.Name = v },
	"description": func(d *IcdDetails, v string) { d.Description = v },
	"desc":        func(d *IcdDetails, v string) { d.Description = v },
	"category":    func(d *IcdDetails, v string) { d.Category = v },
	"version":     func(d *IcdDetails, v string) { d.Version = v },
}

var icdFields = Fields{
	"id":          {"id", "icdId"},
	"code":        {"code", "icdCode"},
	"nameEn":      {"nameEn", "name_en", "englishName"},
	"nameAr":      {"nameAr", "name_ar", "arabicName"},
	"name":        {"name"},
	"description": {"description", "desc"},
	"category":    {"category"},
	"version":     {"version"},
}

// normalizeKey lower-cases and strips punctuation: "ICD_Name-En" -> "icdnameen".
func normalizeKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractFlatIcdDetails rebuilds an ICD record from icd-prefixed keys on a
// relation. Returns nil when no recognized key carries a non-blank value.
func ExtractFlatIcdDetails(relation any) *IcdDetails {
	rec := AsRecord(relation)
	if rec == nil {
		return nil
	}

	keys := make([]string, 0, len(rec))
	for key := range rec {
		keys = append(keys, key)
	}
	// Sort keys for deterministic resolution of colliding spellings (icdDesc, icdDescription)
	sort.Strings(keys)

	var details IcdDetails
	found := false
	for _, key := range keys {
		value := rec[key]
		norm := normalizeKey(key)
		if !strings.HasPrefix(norm, "icd") {
			continue
		}
		set, ok := icdSuffixes[strings.TrimPrefix(norm, "icd")]
		if !ok {
			continue
		}
		s := strings.TrimSpace(Stringify(value))
		if s == "" {
			continue
		}
		set(&details, s)
		found = true
	}

	if !found {
		return nil
	}
	return &details
}

// normalizeNestedIcd maps a nested icd object; nil when it carries no data.
func normalizeNestedIcd(v any) *IcdDetails {
	rec := AsRecord(v)
	if rec == nil {
		return nil
	}
	details := IcdDetails{
		ID:          strings.TrimSpace(icdFields.String(rec, "id")),
		Code:        strings.TrimSpace(icdFields.String(rec, "code")),
		NameEn:      strings.TrimSpace(icdFields.String(rec, "nameEn")),
		NameAr:      strings.TrimSpace(icdFields.String(rec, "nameAr")),
		Name:        strings.TrimSpace(icdFields.String(rec, "name")),
		Description: strings.TrimSpace(icdFields.String(rec, "description")),
		Category:    strings.TrimSpace(icdFields.String(rec, "category")),
		Version:     strings.TrimSpace(icdFields.String(rec, "version")),
	}
	if details == (IcdDetails{}) {
		return nil
	}
	return &details
}

// NormalizeIcdRelation prefers a nested icd object and falls back to flat keys.
func NormalizeIcdRelation(relation any) *IcdDetails {
	rec := AsRecord(relation)
	if rec == nil {
		return nil
	}
	for _, key := range []string{"icd", "icdCode", "diagnosis"} {
		if nested := normalizeNestedIcd(rec[key]); nested != nil {
			return nested
		}
	}
	return ExtractFlatIcdDetails(rec)
}

// NormalizeIcdRelations maps a relation list, dropping entries without ICD data.
func NormalizeIcdRelations(v any) []IcdDetails {
	list, _ := v.([]any)
	out := make([]IcdDetails, 0, len(list))
	for _, elem := range list {
		if d := NormalizeIcdRelation(elem); d != nil {
			out = append(out, *d)
		}
	}
	return out
}
