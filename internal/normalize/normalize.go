// Package normalize shapes raw model extractions into the canonical medical
// document payload: fixed section order, measurement objects with the four
// lab-report keys, and consistent scalar formatting.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SectionOrder lists the known sections in the order they appear in reports.
var SectionOrder = []string{
	"DEMOGRAPHY",
	"MEDICAL_HISTORY",
	"VITAL_SIGNS",
	"SEROLOGY",
	"URINALYSIS",
	"HEMATOLOGY",
	"CLINICAL_CHEMISTRY",
}

// MeasurementKeys are the lab-report columns every measurement object carries.
// The key names are Indonesian, matching the source documents.
var MeasurementKeys = []string{"Hasil", "Nilai Rujukan", "Satuan", "Metode"}

var (
	urinalysisFields = []string{
		"ph", "density", "glucose", "ketone", "urobilinogen",
		"bilirubin", "blood", "leucocyte_esterase", "nitrite",
	}
	hematologyFields = []string{
		"hemoglobin", "hematocrit", "leukocyte", "erythrocyte", "thrombocyte", "esr",
	}
	chemistryFields = []string{
		"bilirubin_total", "alkaline_phosphatase", "sgot", "sgpt", "ureum", "creatinine", "random_blood_glucose",
	}
	demographyFields = []string{
		"subject_initials", "sin", "study_drug", "screening_date", "gender",
		"date_of_birth", "age", "weight_kg", "height_cm", "bmi",
	}
	serologyFields = []string{"hbsag", "hcv", "hiv"}
)

const urinalysisDefaultMethod = "Carik Celup"

var dateLayouts = []string{
	"02/Jan/2006", "02-Jan-2006", "02/January/2006", "02-January-2006",
	"02/01/2006", "02-01-2006", "2006-01-02", "01/02/2006", "01-02-2006",
}

var shortMonthDate = regexp.MustCompile(`^\d{2}/[A-Za-z]{3}/\d{4}$`)

// Document normalizes an extracted payload into the canonical shape. Known
// sections come first in clinical order; unknown sections are preserved after
// them in sorted order. A nil input yields the default all-null payload; an
// empty map still runs the full pipeline, so measurement defaults apply.
func Document(extracted map[string]any) *Payload {
	base := defaultPayload()
	if extracted == nil {
		return base
	}

	norm := normalizeSectionKeys(extracted)
	mergeSimpleSections(norm, base)
	processSerology(norm["SEROLOGY"], base.Section("SEROLOGY"))
	processMeasurementSections(norm, base)
	processDemography(base.Section("DEMOGRAPHY"))
	processVitalSigns(base.Section("VITAL_SIGNS"))

	var extras []string
	for k := range norm {
		if !isKnownSection(k) {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		base.Set(k, norm[k])
	}
	return base
}

func defaultPayload() *Payload {
	p := NewPayload()

	demo := make(map[string]any, len(demographyFields))
	for _, f := range demographyFields {
		demo[f] = nil
	}
	p.Set("DEMOGRAPHY", demo)
	p.Set("MEDICAL_HISTORY", map[string]any{"smoker_cigarettes_per_day": nil})
	p.Set("VITAL_SIGNS", map[string]any{"systolic_bp": nil, "diastolic_bp": nil, "heart_rate": nil})

	sero := make(map[string]any, len(serologyFields))
	for _, f := range serologyFields {
		sero[f] = nil
	}
	p.Set("SEROLOGY", sero)

	p.Set("URINALYSIS", measurementSection(urinalysisFields))
	p.Set("HEMATOLOGY", measurementSection(hematologyFields))
	p.Set("CLINICAL_CHEMISTRY", measurementSection(chemistryFields))
	return p
}

func measurementSection(fields []string) map[string]any {
	sec := make(map[string]any, len(fields))
	for _, f := range fields {
		sec[f] = measurementTemplate()
	}
	return sec
}

func measurementTemplate() map[string]any {
	m := make(map[string]any, len(MeasurementKeys))
	for _, k := range MeasurementKeys {
		m[k] = nil
	}
	return m
}

func normalizeSectionKeys(extracted map[string]any) map[string]any {
	norm := make(map[string]any, len(extracted))
	for k, v := range extracted {
		canonical := strings.ToUpper(strings.ReplaceAll(k, " ", "_"))
		if isKnownSection(canonical) {
			norm[canonical] = v
			continue
		}
		norm[k] = v
	}
	return norm
}

func isKnownSection(key string) bool {
	for _, s := range SectionOrder {
		if key == s {
			return true
		}
	}
	return false
}

func mergeSimpleSections(norm map[string]any, base *Payload) {
	for _, sec := range []string{"DEMOGRAPHY", "MEDICAL_HISTORY", "VITAL_SIGNS"} {
		src, ok := norm[sec].(map[string]any)
		if !ok {
			continue
		}
		dst := base.Section(sec)
		for k, v := range src {
			dst[k] = v
		}
	}
}

func processDemography(demo map[string]any) {
	demo["screening_date"] = normDate(demo["screening_date"])
	demo["date_of_birth"] = normDate(demo["date_of_birth"])
	demo["age"] = ageToInt(demo["age"])
	for _, k := range []string{"weight_kg", "height_cm", "bmi"} {
		if demo[k] != nil {
			demo[k] = toStr(demo[k])
		}
	}
}

func processVitalSigns(vitals map[string]any) {
	for _, k := range []string{"systolic_bp", "diastolic_bp", "heart_rate"} {
		if vitals[k] != nil {
			vitals[k] = toStr(vitals[k])
		}
	}
}

func processSerology(raw any, base map[string]any) {
	src, ok := raw.(map[string]any)
	if !ok {
		return
	}
	for k := range base {
		base[k] = serologyStr(src[k])
	}
}

func serologyStr(v any) any {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		for _, key := range []string{"Hasil", "hasil", "value", "Value", "result", "Result"} {
			if val, ok := m[key]; ok && val != nil {
				return toStr(val)
			}
		}
		return fmt.Sprintf("%v", m)
	}
	return toStr(v)
}

func processMeasurementSections(norm map[string]any, base *Payload) {
	sections := []struct {
		name          string
		fields        []string
		defaultMethod string
	}{
		{"URINALYSIS", urinalysisFields, urinalysisDefaultMethod},
		{"HEMATOLOGY", hematologyFields, ""},
		{"CLINICAL_CHEMISTRY", chemistryFields, ""},
	}
	for _, sec := range sections {
		dst := base.Section(sec.name)
		if src, ok := norm[sec.name].(map[string]any); ok {
			for k, v := range src {
				dst[k] = v
			}
		}
		for _, f := range sec.fields {
			dst[f] = asMeasurement(dst[f], sec.defaultMethod)
		}
	}
}

func asMeasurement(v any, defaultMethod string) map[string]any {
	out := measurementTemplate()
	switch val := v.(type) {
	case map[string]any:
		for _, k := range MeasurementKeys {
			if raw, ok := val[k]; ok {
				out[k] = toStr(raw)
			}
		}
		for k, raw := range val {
			if _, known := out[k]; !known {
				out[k] = raw
			}
		}
	case nil:
	default:
		out["Hasil"] = toStr(val)
	}
	if defaultMethod != "" && (out["Metode"] == nil || out["Metode"] == "") {
		out["Metode"] = defaultMethod
	}
	return out
}

func toStr(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func ageToInt(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		return int(val)
	case int:
		return val
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return nil
		}
		return n
	default:
		return nil
	}
}

func normDate(v any) any {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprintf("%v", toStr(v))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if shortMonthDate.MatchString(s) {
		parts := strings.Split(s, "/")
		return parts[0] + "/" + strings.ToUpper(parts[1]) + "/" + parts[2]
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return strings.ToUpper(t.Format("02/Jan/2006"))
		}
	}
	return s
}
