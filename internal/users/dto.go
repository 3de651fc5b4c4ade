package users

import (
	"github.com/crewtrack/crewtrack/internal/shared"
	"github.com/crewtrack/crewtrack/internal/tasks"
)

// UserDTO is the transfer shape of a user. Pointer fields track presence for
// PATCH bodies. The tasks set is rendered as task transfer objects, which
// carry no user references of their own, so expansion stops there.
type UserDTO struct {
	ID               *int64          `json:"id,omitempty"`
	FirstName        *string         `json:"firstName" validate:"required"`
	FamilyName       *string         `json:"familyName" validate:"required"`
	WorkHoursPerWeek *int64          `json:"workHoursPerWeek,omitempty" validate:"omitempty,gte=0"`
	Rank             *string         `json:"rank" validate:"required"`
	BirthDate        *shared.Date    `json:"birthDate" validate:"required"`
	Gender           *string         `json:"gender,omitempty"`
	WorkingStatus    *string         `json:"workingStatus,omitempty"`
	Tasks            []tasks.TaskDTO `json:"tasks"`
}

// ToDTO converts a user entity to its transfer shape.
func ToDTO(u User) UserDTO {
	first := u.FirstName
	family := u.FamilyName
	rank := string(u.Rank)
	birth := shared.DateOf(u.BirthDate)
	dto := UserDTO{
		ID:               &u.ID,
		FirstName:        &first,
		FamilyName:       &family,
		WorkHoursPerWeek: u.WorkHoursPerWeek,
		Rank:             &rank,
		BirthDate:        &birth,
		Tasks:            tasks.ToDTOs(u.Tasks),
	}
	if u.Gender != nil {
		g := string(*u.Gender)
		dto.Gender = &g
	}
	if u.WorkingStatus != nil {
		ws := string(*u.WorkingStatus)
		dto.WorkingStatus = &ws
	}
	return dto
}

// ToDTOs converts a slice of user entities.
func ToDTOs(items []User) []UserDTO {
	dtos := make([]UserDTO, len(items))
	for i, u := range items {
		dtos[i] = ToDTO(u)
	}
	return dtos
}

// toUser converts a transfer object to an entity. The id is preserved only
// when present. Task associations are managed through the assignment
// endpoint, never through user payloads.
func toUser(d UserDTO) (User, error) {
	var u User
	if d.ID != nil {
		u.ID = *d.ID
	}
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.FamilyName != nil {
		u.FamilyName = *d.FamilyName
	}
	u.WorkHoursPerWeek = d.WorkHoursPerWeek
	if d.Rank != nil {
		rank, err := ParseRank(*d.Rank)
		if err != nil {
			return User{}, err
		}
		u.Rank = rank
	}
	if d.BirthDate != nil {
		u.BirthDate = d.BirthDate.Time
	}
	if d.Gender != nil {
		gender, err := ParseGender(*d.Gender)
		if err != nil {
			return User{}, err
		}
		u.Gender = &gender
	}
	if d.WorkingStatus != nil {
		status, err := ParseWorkingStatus(*d.WorkingStatus)
		if err != nil {
			return User{}, err
		}
		u.WorkingStatus = &status
	}
	return u, nil
}

// applyPartial overwrites exactly the fields present on the transfer object.
func applyPartial(d UserDTO, u *User) error {
	if d.FirstName != nil {
		u.FirstName = *d.FirstName
	}
	if d.FamilyName != nil {
		u.FamilyName = *d.FamilyName
	}
	if d.WorkHoursPerWeek != nil {
		u.WorkHoursPerWeek = d.WorkHoursPerWeek
	}
	if d.Rank != nil {
		rank, err := ParseRank(*d.Rank)
		if err != nil {
			return err
		}
		u.Rank = rank
	}
	if d.BirthDate != nil {
		u.BirthDate = d.BirthDate.Time
	}
	if d.Gender != nil {
		gender, err := ParseGender(*d.Gender)
		if err != nil {
			return err
		}
		u.Gender = &gender
	}
	if d.WorkingStatus != nil {
		status, err := ParseWorkingStatus(*d.WorkingStatus)
		if err != nil {
			return err
		}
		u.WorkingStatus = &status
	}
	return nil
}
