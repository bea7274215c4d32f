// Package forms models form state as an explicit value object: the submitted
// values, per-field validation errors, and a submission status. Validation
// runs client-side (that is, in the console) before any request reaches the
// records API.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Status is the lifecycle position of a form.
type Status string

const (
	StatusIdle  Status = "idle"
	StatusError Status = "error"
)

// Form carries everything a template needs to render a (possibly failed)
// submission: sticky values, per-field errors, and a status.
type Form struct {
	Values map[string]string
	Errors map[string]string
	Status Status
}

// New returns an empty idle form.
func New() Form {
	return Form{
		Values: map[string]string{},
		Errors: map[string]string{},
		Status: StatusIdle,
	}
}

// WithValues returns a copy of the form carrying the given sticky values.
func (f Form) WithValues(values map[string]string) Form {
	out := f
	out.Values = values
	return out
}

// WithErrors returns a copy of the form in the error state.
func (f Form) WithErrors(errs map[string]string) Form {
	out := f
	out.Errors = errs
	out.Status = StatusError
	return out
}

// WithError returns a copy of the form with one non-field error recorded
// under the "_form" key.
func (f Form) WithError(msg string) Form {
	return f.WithErrors(map[string]string{"_form": msg})
}

// FormError returns the non-field error message, if any.
func (f Form) FormError() string {
	return f.Errors["_form"]
}

// HasErrors reports whether the form failed validation or submission.
func (f Form) HasErrors() bool {
	return len(f.Errors) > 0
}

// LoginForm is the sign-in schema.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required,min=6"`
}

// RegisterForm is the account-creation schema.
type RegisterForm struct {
	Username string `form:"username" validate:"required,min=3"`
	Email    string `form:"email" validate:"required,email"`
	FullName string `form:"full_name" validate:"required"`
	Role     string `form:"role" validate:"required,oneof=admin user"`
	Password string `form:"password" validate:"required,min=6"`
}

// StudentForm is the add/edit student schema. On edit the roll number is
// taken from the URL, never from the submitted form.
type StudentForm struct {
	Name       string `form:"name" validate:"required,min=2"`
	RollNumber string `form:"roll_number" validate:"required"`
	ClassName  string `form:"class_name" validate:"required"`
	Grade      string `form:"grade" validate:"required,oneof=A+ A B+ B C+ C D F"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name so errors line up with inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a schema struct and returns per-field messages keyed by the
// form field name. An empty map means the value passed.
func Validate(schema any) map[string]string {
	errs := map[string]string{}
	err := validate.Struct(schema)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["_form"] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = messageFor(fe)
		}
	}
	return errs
}

// messageFor maps a validator failure onto the message the console shows
// inline next to the field.
func messageFor(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "email":
		return "Invalid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

// fieldLabel turns a form field name like "roll_number" into "Roll number".
func fieldLabel(field string) string {
	if field == "" {
		return "Field"
	}
	label := strings.ReplaceAll(field, "_", " ")
	return strings.ToUpper(label[:1]) + label[1:]
}
