package tasks

import (
	"fmt"
	"time"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
)

// Type classifies the kind of work a task represents.
type Type string

const (
	TypeBugFix                Type = "BUG_FIX"
	TypeFeatureImplementation Type = "FEATURE_IMPLEMENTATION"
	TypeCodeReview            Type = "CODE_REVIEW"
	TypeTesting               Type = "TESTING"
	TypeRequirementsAnalysis  Type = "REQUIREMENTS_ANALYSIS"
	TypeDocumentation         Type = "DOCUMENTATION"
	TypeRelease               Type = "RELEASE"
	TypeDeployment            Type = "DEPLOYMENT"
	TypeMaintenance           Type = "MAINTENANCE"
	TypeRefactoring           Type = "REFACTORING"
	TypeTraining              Type = "TRAINING"
	TypeSupport               Type = "SUPPORT"
)

var taskTypes = map[Type]struct{}{
	TypeBugFix: {}, TypeFeatureImplementation: {}, TypeCodeReview: {},
	TypeTesting: {}, TypeRequirementsAnalysis: {}, TypeDocumentation: {},
	TypeRelease: {}, TypeDeployment: {}, TypeMaintenance: {},
	TypeRefactoring: {}, TypeTraining: {}, TypeSupport: {},
}

// ParseType validates a task type literal.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := taskTypes[t]; !ok {
		return "", fmt.Errorf("%w: unknown task type %q", httpx.ErrValidation, s)
	}
	return t, nil
}

// State is the progress state of a task. Transitions are unconstrained data;
// the only state-dependent rule lives in the user assignment path.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
)

// ParseState validates a task state literal.
func ParseState(s string) (State, error) {
	switch State(s) {
	case StateNotStarted, StateInProgress, StateCompleted:
		return State(s), nil
	}
	return "", fmt.Errorf("%w: unknown task state %q", httpx.ErrValidation, s)
}

// Task represents a unit of trackable work.
type Task struct {
	ID                       int64
	Name                     string
	Description              *string
	WorkTimePerWeekPerPerson int64
	Type                     Type
	Deadline                 time.Time
	State                    State
	WeeksNeeded              int64
	PersonsNeeded            *int64
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
