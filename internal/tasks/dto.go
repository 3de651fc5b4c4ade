package tasks

import (
	"github.com/crewtrack/crewtrack/internal/shared"
)

// TaskDTO is the transfer shape of a task. Pointer fields track presence so
// PATCH bodies can distinguish omitted fields from provided ones.
type TaskDTO struct {
	ID                       *int64       `json:"id,omitempty"`
	Name                     *string      `json:"name" validate:"required"`
	Description              *string      `json:"description,omitempty"`
	WorkTimePerWeekPerPerson *int64       `json:"workTimePerWeekPerPerson" validate:"required,gte=0"`
	Type                     *string      `json:"type" validate:"required"`
	DeadLine                 *shared.Date `json:"deadLine" validate:"required"`
	State                    *string      `json:"state" validate:"required"`
	WeeksNeeded              *int64       `json:"weeksNeeded" validate:"required,gte=0"`
	PersonsNeeded            *int64       `json:"personsNeeded,omitempty" validate:"omitempty,gte=0"`
}

// ToDTO converts a task entity to its transfer shape.
func ToDTO(t Task) TaskDTO {
	name := t.Name
	work := t.WorkTimePerWeekPerPerson
	typ := string(t.Type)
	state := string(t.State)
	weeks := t.WeeksNeeded
	deadline := shared.DateOf(t.Deadline)
	return TaskDTO{
		ID:                       &t.ID,
		Name:                     &name,
		Description:              t.Description,
		WorkTimePerWeekPerPerson: &work,
		Type:                     &typ,
		DeadLine:                 &deadline,
		State:                    &state,
		WeeksNeeded:              &weeks,
		PersonsNeeded:            t.PersonsNeeded,
	}
}

// ToDTOs converts a slice of task entities.
func ToDTOs(items []Task) []TaskDTO {
	dtos := make([]TaskDTO, len(items))
	for i, t := range items {
		dtos[i] = ToDTO(t)
	}
	return dtos
}

// toTask converts a transfer object to an entity. The id is preserved only
// when present; it is never synthesized here. Enum literals are validated.
func toTask(d TaskDTO) (Task, error) {
	var t Task
	if d.ID != nil {
		t.ID = *d.ID
	}
	if d.Name != nil {
		t.Name = *d.Name
	}
	t.Description = d.Description
	if d.WorkTimePerWeekPerPerson != nil {
		t.WorkTimePerWeekPerPerson = *d.WorkTimePerWeekPerPerson
	}
	if d.Type != nil {
		typ, err := ParseType(*d.Type)
		if err != nil {
			return Task{}, err
		}
		t.Type = typ
	}
	if d.DeadLine != nil {
		t.Deadline = d.DeadLine.Time
	}
	if d.State != nil {
		state, err := ParseState(*d.State)
		if err != nil {
			return Task{}, err
		}
		t.State = state
	}
	if d.WeeksNeeded != nil {
		t.WeeksNeeded = *d.WeeksNeeded
	}
	t.PersonsNeeded = d.PersonsNeeded
	return t, nil
}

// applyPartial overwrites exactly the fields present on the transfer object.
// Omitted (nil) fields leave the entity untouched.
func applyPartial(d TaskDTO, t *Task) error {
	if d.Name != nil {
		t.Name = *d.Name
	}
	if d.Description != nil {
		t.Description = d.Description
	}
	if d.WorkTimePerWeekPerPerson != nil {
		t.WorkTimePerWeekPerPerson = *d.WorkTimePerWeekPerPerson
	}
	if d.Type != nil {
		typ, err := ParseType(*d.Type)
		if err != nil {
			return err
		}
		t.Type = typ
	}
	if d.DeadLine != nil {
		t.Deadline = d.DeadLine.Time
	}
	if d.State != nil {
		state, err := ParseState(*d.State)
		if err != nil {
			return err
		}
		t.State = state
	}
	if d.WeeksNeeded != nil {
		t.WeeksNeeded = *d.WeeksNeeded
	}
	if d.PersonsNeeded != nil {
		t.PersonsNeeded = d.PersonsNeeded
	}
	return nil
}
