package domain

import (
	stderrors "errors"
	"pajal/errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/id"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	id_translations "github.com/go-playground/validator/v10/translations/id"
)

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	indonesian := id.New()
	translator, _ = ut.New(indonesian, indonesian).GetTranslator("id")
	_ = id_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names in messages instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("cohort", func(fl validator.FieldLevel) bool {
		return cohortPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterTranslation("cohort", translator,
		func(t ut.Translator) error {
			return t.Add("cohort", "{0} harus berformat SK<semester><A-D>", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T("cohort", fe.Field())
			return s
		})
}

// ClassInput is what a lecturer submits when creating or editing a class.
type ClassInput struct {
	Name       string    `json:"name" validate:"required"`
	ClassTypes []string  `json:"classTypes" validate:"required,min=1,unique,dive,required"`
	Start      time.Time `json:"start" validate:"required"`
	End        time.Time `json:"end" validate:"required,gtfield=Start"`
	Location   string    `json:"location" validate:"required"`
	Note       string    `json:"note"`
}

func (in ClassInput) Slot() Slot {
	return Slot{Name: in.Name, Start: in.Start, End: in.End, Location: in.Location}
}

// ProfileInput holds the self-service and admin editable account fields.
type ProfileInput struct {
	Name      string  `json:"name" validate:"required"`
	Username  string  `json:"username" validate:"required,min=3"`
	NimNip    string  `json:"nim_nip"`
	ClassType *string `json:"classType" validate:"omitempty,cohort"`
}

func ValidateClassInput(in ClassInput) error {
	return validateStruct(in)
}

func ValidateProfile(in ProfileInput) error {
	return validateStruct(in)
}

// validateStruct returns the first failing rule as a Rejection with an
// Indonesian message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if stderrors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		return errors.Rejection{Cause: errors.ErrInvalidInput, Message: fieldErrors[0].Translate(translator)}
	}
	return errors.Rejection{Cause: errors.ErrInvalidInput, Message: err.Error()}
}
