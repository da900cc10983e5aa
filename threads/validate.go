package threads

import (
	"errors"
	"fmt"
	"strings"

	"neurodvach/config"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError is returned when user input is rejected before anything is stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// newValidator registers notblank and the length limits from config as tag aliases.
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterAlias("title_len", fmt.Sprintf("max=%d", config.MaxTitleLen))
	v.RegisterAlias("content_len", fmt.Sprintf("max=%d", config.MaxContentLen))
	return v
}

var fieldNames = map[string]string{
	"Title":   "заголовок",
	"Content": "текст",
}

// validateStruct runs the tags on s and converts the first failure into a ValidationError.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	name := fieldNames[fe.Field()]
	if name == "" {
		name = strings.ToLower(fe.Field())
	}
	ve := &ValidationError{Field: fe.Field()}
	switch fe.ActualTag() {
	case "required", "notblank":
		ve.Message = fmt.Sprintf("поле «%s» обязательно", name)
	case "max":
		ve.Message = fmt.Sprintf("поле «%s» слишком длинное (максимум %s символов)", name, fe.Param())
	default:
		ve.Message = fmt.Sprintf("поле «%s» заполнено неверно", name)
	}
	return ve
}
