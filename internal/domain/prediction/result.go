package prediction

// Text labels attached to each class.
const (
	LabelAtRisk = "Risque de départ"
	LabelStable = "Stable"
)

// Result is the outcome for one record.
type Result struct {
	// Class is 1 when the employee is predicted to leave.
	Class int
	// Probability of the positive class. Equals float64(Class) when the
	// model has no probability estimator.
	Probability float64
	Label       string
}

// LabelFor returns the text label of a class.
func LabelFor(class int) string {
	if class == 1 {
		return LabelAtRisk
	}
	return LabelStable
}
