package contact

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/DukeRupert/svelectricals/internal/domain"
	"github.com/go-playground/validator/v10"
)

// nonSpace matches one character outside the browser's whitespace class,
// which unlike RE2's \s also covers Unicode space separators and BOM.
const nonSpace = `[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

var (
	emailPattern = regexp.MustCompile(nonSpace + `+@` + nonSpace + `+\.` + nonSpace + `+`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// messages maps "field.tag" to the text shown under the field.
var messages = map[string]string{
	domain.FieldName + ".filled":      "Name is required",
	domain.FieldEmail + ".filled":     "Email is required",
	domain.FieldEmail + ".looseemail": "Email is invalid",
	domain.FieldPhone + ".filled":     "Phone is required",
	domain.FieldPhone + ".phone10":    "Phone number should be 10 digits",
	domain.FieldService + ".required": "Please select a service",
	domain.FieldMessage + ".filled":   "Message is required",
}

// Result is the outcome of validating a contact form.
type Result struct {
	Valid  bool
	Errors map[string]string
}

// Validator checks contact forms against the field rules. Every field is
// checked on every call and each failing field gets exactly one message.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with the contact form rules registered.
func NewValidator() *Validator {
	v := validator.New()

	// Report fields by their form name so errors key on "email", not "Email".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "filled", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "looseemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone10", func(fl validator.FieldLevel) bool {
		return len(nonDigits.ReplaceAllString(fl.Field().String(), "")) == 10
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("contact: register validation " + tag + ": " + err.Error())
	}
}

// Validate checks every field of form.
func (v *Validator) Validate(form domain.ContactForm) Result {
	res := Result{Valid: true, Errors: make(map[string]string)}

	err := v.validate.Struct(form)
	if err == nil {
		return res
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError only happens for non-struct input.
		panic("contact: validate: " + err.Error())
	}

	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		res.Errors[fe.Field()] = msg
	}
	res.Valid = len(res.Errors) == 0
	return res
}
