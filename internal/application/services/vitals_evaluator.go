package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Ussyboy7/npa-emr-flow/internal/domain/entities"
)

// FieldName identifies a vital sign evaluated against configured ranges
type FieldName string

const (
	FieldTemperature     FieldName = "temperature"
	FieldPulse           FieldName = "pulse"
	FieldRespiratoryRate FieldName = "respiratoryRate"
	FieldSystolic        FieldName = "bloodPressureSystolic"
	FieldDiastolic       FieldName = "bloodPressureDiastolic"
	FieldOxygenSat       FieldName = "oxygenSaturation"
	FieldFBS             FieldName = "fbs"
	FieldRBS             FieldName = "rbs"
	FieldPainScale       FieldName = "painScale"
)

// FieldStatus is the banding of a single reading value
type FieldStatus string

const (
	StatusNormal   FieldStatus = "normal"
	StatusHigh     FieldStatus = "high"
	StatusLow      FieldStatus = "low"
	StatusCritical FieldStatus = "critical"
)

// OverallStatus summarizes a whole reading for visual flagging
type OverallStatus string

const (
	OverallNormal OverallStatus = "normal"
	OverallAlert  OverallStatus = "alert"
)

type valueRange struct {
	Min float64
	Max float64
}

// fieldSpec configures one vital sign: where its value comes from, its
// normal band, and the wider critical band. One-sided signs use an infinite
// critical bound, so oxygen saturation is only ever critical-low and pain
// scale only critical-high. Declaration order of the table is the output
// order of per-field statuses and alerts, so the UI and tests can assert
// exact sequences.
type fieldSpec struct {
	Name     FieldName
	Value    func(*entities.VitalsReading) string
	Normal   valueRange
	Critical valueRange
}

var fieldSpecs = []fieldSpec{
	{FieldTemperature, func(r *entities.VitalsReading) string { return r.Temperature }, valueRange{36.1, 37.2}, valueRange{35, 39}},
	{FieldPulse, func(r *entities.VitalsReading) string { return r.Pulse }, valueRange{60, 100}, valueRange{50, 120}},
	{FieldRespiratoryRate, func(r *entities.VitalsReading) string { return r.RespiratoryRate }, valueRange{12, 20}, valueRange{8, 30}},
	{FieldSystolic, func(r *entities.VitalsReading) string { return r.Systolic }, valueRange{90, 140}, valueRange{70, 180}},
	{FieldDiastolic, func(r *entities.VitalsReading) string { return r.Diastolic }, valueRange{60, 90}, valueRange{40, 120}},
	{FieldOxygenSat, func(r *entities.VitalsReading) string { return r.OxygenSat }, valueRange{95, 100}, valueRange{90, math.Inf(1)}},
	{FieldFBS, func(r *entities.VitalsReading) string { return r.FBS }, valueRange{70, 99}, valueRange{40, 400}},
	{FieldRBS, func(r *entities.VitalsReading) string { return r.RBS }, valueRange{70, 140}, valueRange{40, 400}},
	{FieldPainScale, func(r *entities.VitalsReading) string { return r.PainScale }, valueRange{0, 4}, valueRange{math.Inf(-1), 8}},
}

// fieldValues carries the parsed numeric values of one reading; absent or
// unparseable fields are simply missing from the map.
type fieldValues map[FieldName]float64

// alertRule derives one or zero human-readable alerts from a reading. Rules
// use sign-specific thresholds that intentionally differ from the generic
// High/Low banding (a SpO2 of 94 is "low" by band but already alerts), and a
// rule may combine fields, as blood pressure does. New vital signs get a new
// table entry, not new control flow.
type alertRule struct {
	Name  string
	Check func(v fieldValues) (string, bool)
}

var alertRules = []alertRule{
	{
		Name: "temperature",
		Check: func(v fieldValues) (string, bool) {
			if t, ok := v[FieldTemperature]; ok && t >= 38 {
				return "High Temperature", true
			}
			return "", false
		},
	},
	{
		Name: "pulse",
		Check: func(v fieldValues) (string, bool) {
			if p, ok := v[FieldPulse]; ok && (p < 50 || p > 100) {
				return "Abnormal Pulse", true
			}
			return "", false
		},
	},
	{
		Name: "respiratoryRate",
		Check: func(v fieldValues) (string, bool) {
			if rr, ok := v[FieldRespiratoryRate]; ok && (rr < 12 || rr > 20) {
				return "Abnormal Respiratory Rate", true
			}
			return "", false
		},
	},
	{
		// Blood pressure is a combined systolic/diastolic rule, not two
		// independent per-number rules.
		Name: "bloodPressure",
		Check: func(v fieldValues) (string, bool) {
			sys, hasSys := v[FieldSystolic]
			dia, hasDia := v[FieldDiastolic]
			if !hasSys && !hasDia {
				return "", false
			}
			if (hasSys && sys >= 140) || (hasDia && dia >= 90) {
				return "High Blood Pressure", true
			}
			if (hasSys && sys < 90) || (hasDia && dia < 60) {
				return "Low Blood Pressure", true
			}
			return "", false
		},
	},
	{
		Name: "oxygenSaturation",
		Check: func(v fieldValues) (string, bool) {
			spo2, ok := v[FieldOxygenSat]
			if !ok {
				return "", false
			}
			if spo2 < 90 {
				return "Critical Low O2 Saturation (<90%)", true
			}
			if spo2 < 95 {
				return "Low O2 Saturation (<95%)", true
			}
			return "", false
		},
	},
	{
		Name: "fbs",
		Check: func(v fieldValues) (string, bool) {
			fbs, ok := v[FieldFBS]
			if !ok {
				return "", false
			}
			if fbs < 70 {
				return "Low Fasting Blood Sugar (<70 mg/dL)", true
			}
			if fbs >= 126 {
				return "High Fasting Blood Sugar (≥126 mg/dL)", true
			}
			return "", false
		},
	},
	{
		Name: "rbs",
		Check: func(v fieldValues) (string, bool) {
			rbs, ok := v[FieldRBS]
			if !ok {
				return "", false
			}
			if rbs < 70 {
				return "Low Random Blood Sugar (<70 mg/dL)", true
			}
			if rbs >= 200 {
				return "High Random Blood Sugar (≥200 mg/dL)", true
			}
			return "", false
		},
	},
}

// VitalsEvaluator computes per-field status bands and human-readable alerts
// from a vitals snapshot. It is pure: the same reading always yields the
// same statuses and the same alert sequence. It is the single source of
// truth for thresholds that the original screens each duplicated.
type VitalsEvaluator struct{}

// NewVitalsEvaluator creates a vitals evaluator
func NewVitalsEvaluator() *VitalsEvaluator {
	return &VitalsEvaluator{}
}

// Evaluate computes the status band of every configured vital sign and the
// ordered alert list for a reading. Absent or unparseable values are not
// evaluated: clinical data entry is often incomplete mid-visit, so absence
// is never itself abnormal and never an error.
func (e *VitalsEvaluator) Evaluate(reading *entities.VitalsReading) (map[FieldName]FieldStatus, []string) {
	statuses := make(map[FieldName]FieldStatus, len(fieldSpecs))
	if reading == nil {
		return statuses, nil
	}

	values := make(fieldValues, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		raw := strings.TrimSpace(spec.Value(reading))
		if raw == "" {
			statuses[spec.Name] = StatusNormal
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			statuses[spec.Name] = StatusNormal
			continue
		}
		values[spec.Name] = value
		statuses[spec.Name] = bandStatus(value, spec)
	}

	var alerts []string
	for _, rule := range alertRules {
		if msg, triggered := rule.Check(values); triggered {
			alerts = append(alerts, msg)
		}
	}
	return statuses, alerts
}

// Summarize collapses per-field statuses into an overall flag: alert when
// any checked field left its normal band. Used for visual flagging only,
// never for state-machine transitions.
func (e *VitalsEvaluator) Summarize(statuses map[FieldName]FieldStatus) OverallStatus {
	for _, status := range statuses {
		if status != StatusNormal {
			return OverallAlert
		}
	}
	return OverallNormal
}

// bandStatus applies the banding precedence: critical bounds first, then the
// normal range, then high/low. The low bound is exclusive and the high bound
// inclusive, so SpO2 90 reads low while a pain scale of 8 reads critical.
func bandStatus(value float64, spec fieldSpec) FieldStatus {
	switch {
	case value < spec.Critical.Min || value >= spec.Critical.Max:
		return StatusCritical
	case value >= spec.Normal.Min && value <= spec.Normal.Max:
		return StatusNormal
	case value > spec.Normal.Max:
		return StatusHigh
	default:
		return StatusLow
	}
}

// BMIFromReading derives body-mass index from recorded height and weight
// when both parse; it returns the value formatted to one decimal place.
func BMIFromReading(reading *entities.VitalsReading) (string, bool) {
	if reading == nil {
		return "", false
	}
	heightCm, err := strconv.ParseFloat(strings.TrimSpace(reading.Height), 64)
	if err != nil || heightCm <= 0 {
		return "", false
	}
	weightKg, err := strconv.ParseFloat(strings.TrimSpace(reading.Weight), 64)
	if err != nil || weightKg <= 0 {
		return "", false
	}
	heightM := heightCm / 100
	return fmt.Sprintf("%.1f", weightKg/(heightM*heightM)), true
}
