// Package history describes the record of one served prediction.
package history

import (
	"time"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/prediction"
)

// Entry is one prediction to be written to the assessment history.
type Entry struct {
	RequestID    string
	Profile      employee.Profile
	Result       prediction.Result
	ModelVersion string
	At           time.Time
}
