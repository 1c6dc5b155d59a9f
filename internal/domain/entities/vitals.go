package entities

import (
	"time"
)

// VitalsReading is one coherent snapshot of clinical measurements taken at
// triage. Values are kept as entered by the recording nurse: clinical data
// entry is often incomplete mid-visit, so a field may be empty or
// unparseable, and the evaluator treats such fields as not evaluated rather
// than erroring. A reading is immutable once created; re-recording replaces
// the whole snapshot so alert computation always works from a single
// coherent set of values.
type VitalsReading struct {
	Temperature     string    `json:"temperature"`
	Pulse           string    `json:"pulse"`
	RespiratoryRate string    `json:"respiratory_rate"`
	Systolic        string    `json:"blood_pressure_systolic"`
	Diastolic       string    `json:"blood_pressure_diastolic"`
	OxygenSat       string    `json:"oxygen_saturation"`
	FBS             string    `json:"fbs"`
	RBS             string    `json:"rbs"`
	PainScale       string    `json:"pain_scale"`
	Height          string    `json:"height"`
	Weight          string    `json:"weight"`
	BMI             string    `json:"body_mass_index"`
	Comment         string    `json:"comment,omitempty"`
	RecordedAt      time.Time `json:"recorded_at"`
	RecordedBy      string    `json:"recorded_by"`
}
