package users

import (
	"fmt"
	"time"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
	"github.com/crewtrack/crewtrack/internal/tasks"
)

// Rank is the position of a user in the organisation.
type Rank string

const (
	RankManager Rank = "MANAGER"
	RankBoss    Rank = "BOSS"
	RankAdmin   Rank = "ADMIN"
	RankWorker  Rank = "WORKER"
)

// ParseRank validates a rank literal.
func ParseRank(s string) (Rank, error) {
	switch Rank(s) {
	case RankManager, RankBoss, RankAdmin, RankWorker:
		return Rank(s), nil
	}
	return "", fmt.Errorf("%w: unknown rank %q", httpx.ErrValidation, s)
}

// Gender is an optional user attribute.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// ParseGender validates a gender literal.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s), nil
	}
	return "", fmt.Errorf("%w: unknown gender %q", httpx.ErrValidation, s)
}

// WorkingStatus describes whether a user is currently available for work.
type WorkingStatus string

const (
	StatusActive     WorkingStatus = "ACTIVE"
	StatusOnVacation WorkingStatus = "ON_VACATION"
	StatusRetired    WorkingStatus = "RETIRED"
)

// ParseWorkingStatus validates a working status literal.
func ParseWorkingStatus(s string) (WorkingStatus, error) {
	switch WorkingStatus(s) {
	case StatusActive, StatusOnVacation, StatusRetired:
		return WorkingStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown working status %q", httpx.ErrValidation, s)
}

// User represents a workforce member. Tasks holds the user's side of the
// many-to-many assignment; rows live only in the users_tasks join table.
type User struct {
	ID               int64
	FirstName        string
	FamilyName       string
	WorkHoursPerWeek *int64
	Rank             Rank
	BirthDate        time.Time
	Gender           *Gender
	WorkingStatus    *WorkingStatus
	Tasks            []tasks.Task
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
