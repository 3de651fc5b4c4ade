package tasks

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/crewtrack/crewtrack/internal/platform/httpx"
)

// validateDTO checks the struct tags for create/replace payloads and folds
// failures into the validation error kind.
func validateDTO(v *validator.Validate, dto TaskDTO) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return fmt.Errorf("%w: field %s fails %s", httpx.ErrValidation, f.Field(), f.Tag())
	}
	return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
}
