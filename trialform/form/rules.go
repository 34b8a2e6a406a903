package form

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	NameMaxLength     = 30
	PasswordMinLength = 8
)

var (
	namePattern     = regexp.MustCompile(`^[A-Za-z\s]+$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	passwordCharset = regexp.MustCompile(`^[A-Za-z0-9@$!%*?&]+$`)
)

// FieldError is a rule violation on a single field.  It is presentation data,
// not a failure of the program.
type FieldError struct {
	Field   Field
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Errors holds at most one FieldError per field, in field order.
type Errors []FieldError

// Get returns the message for the given field.
func (e Errors) Get(f Field) (string, bool) {
	for _, fe := range e {
		if fe.Field == f {
			return fe.Message, true
		}
	}
	return "", false
}

// Without returns a copy of the errors with the given field removed.
func (e Errors) Without(f Field) Errors {
	if len(e) == 0 {
		return nil
	}
	out := make(Errors, 0, len(e))
	for _, fe := range e {
		if fe.Field != f {
			out = append(out, fe)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Fields returns the names of the fields in error.
func (e Errors) Fields() []string {
	if len(e) == 0 {
		return nil
	}
	names := make([]string, len(e))
	for idx, fe := range e {
		names[idx] = string(fe.Field)
	}
	return names
}

// Map returns the errors keyed by field name.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		m[string(fe.Field)] = fe.Message
	}
	return m
}

type rule struct {
	tag     string
	param   string
	message string
}

func (r rule) String() string {
	if r.param == "" {
		return r.tag
	}
	return r.tag + "=" + r.param
}

// Rules are checked in order and only the first failing rule of a field is
// reported.
var rules = map[Field][]rule{
	FirstName: nameRules("First Name"),
	LastName:  nameRules("Last Name"),
	Email: {
		{tag: "notblank", message: "Email is required"},
		{tag: "emailshape", message: "Invalid email address"},
	},
	Password: {
		{tag: "notblank", message: "Password is required"},
		{tag: "min", param: strconv.Itoa(PasswordMinLength), message: "Password must be at least 8 characters"},
		{tag: "letterdigit", message: "Password must contain at least one letter and one number"},
	},
}

func nameRules(label string) []rule {
	return []rule{
		{tag: "notblank", message: label + " is required"},
		{tag: "max", param: strconv.Itoa(NameMaxLength), message: label + " cannot exceed 30 characters"},
		{tag: "alphaspace", message: label + " should only contain letters"},
	}
}

// Validator checks form values against the field rules.  It is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
	tags     map[Field]string
}

// NewValidator returns a Validator with the form's custom rules registered.
func NewValidator() (*Validator, error) {
	v := validator.New()
	custom := map[string]validator.Func{
		"notblank":    notBlank,
		"alphaspace":  matches(namePattern),
		"emailshape":  matches(emailPattern),
		"letterdigit": letterAndDigit,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, err
		}
	}

	tags := make(map[Field]string, len(rules))
	for f, fieldRules := range rules {
		parts := make([]string, len(fieldRules))
		for idx, r := range fieldRules {
			parts[idx] = r.String()
		}
		tags[f] = strings.Join(parts, ",")
	}
	return &Validator{validate: v, tags: tags}, nil
}

// Field validates a single value and returns the first failing rule's error,
// or nil if the value passes.
func (v *Validator) Field(f Field, value string) *FieldError {
	tag, ok := v.tags[f]
	if !ok {
		return nil
	}
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		for _, r := range rules[f] {
			if r.tag == verrs[0].Tag() {
				return &FieldError{Field: f, Message: r.message}
			}
		}
	}
	return &FieldError{Field: f, Message: "Invalid value"}
}

// Validate checks every field and returns the collected errors.  A nil result
// means all values pass.
func (v *Validator) Validate(values Values) Errors {
	var errs Errors
	for _, f := range Fields {
		if fe := v.Field(f, values.Get(f)); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

var (
	defaultValidatorOnce sync.Once
	defaultValidator     *Validator
)

// DefaultValidator returns the shared Validator.
func DefaultValidator() *Validator {
	defaultValidatorOnce.Do(func() {
		v, err := NewValidator()
		if err != nil {
			panic(err) // only fails on malformed tags
		}
		defaultValidator = v
	})
	return defaultValidator
}

// Validate checks values with the shared Validator.
func Validate(values Values) Errors {
	return DefaultValidator().Validate(values)
}

// ValidateField checks a single value with the shared Validator.
func ValidateField(f Field, value string) *FieldError {
	return DefaultValidator().Field(f, value)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func letterAndDigit(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !passwordCharset.MatchString(s) {
		return false
	}
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}
