package form

const (
	EmailInput    ElementType = "email"
	PasswordInput ElementType = "password"
	TextInput     ElementType = "text"
)

// ElementType defines the type of a form input element:
// https://developer.mozilla.org/en-US/docs/Web/HTML/Element/input
type ElementType string

// Field names the inputs of the signup form.  The value is the input name used
// on the rendered form and as the key of submitted values.
type Field string

const (
	FirstName Field = "firstName"
	LastName  Field = "lastName"
	Email     Field = "email"
	Password  Field = "password"
)

// Fields lists the form fields in display order.
var Fields = []Field{FirstName, LastName, Email, Password}

// Valid reports whether f is one of the form's fields.
func (f Field) Valid() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// Form is the top level type for defining the web form for user input.
type Form struct {
	// The Name appears at the top of the page and in the HTML title.
	Name string
	// The Description appears under the Name.
	Description string
	// Each element creates an input field on the form.
	Elements []Element
}

// Element represents a single form element (field).
type Element struct {
	// ID of the element.  Must be unique.
	ID string
	// Name of the element.  Used as key to retrieve the value on submission.
	Name Field
	// The Label of the field.  It is rendered as a visually hidden label and
	// used as the prompt message in the terminal.
	Label string
	// Placeholder text shown inside the empty input.
	Placeholder string
	// Whether the element represents a required form field.
	Required bool
	// Type is the HTML input element type.
	Type ElementType
	// Autocomplete hint for the browser.
	Autocomplete string
}

// Signup returns the element definitions of the free trial signup form.
func Signup() []Element {
	return []Element{
		{
			ID:           "first-name",
			Name:         FirstName,
			Label:        "First Name",
			Placeholder:  "First Name",
			Required:     true,
			Type:         TextInput,
			Autocomplete: "given-name",
		},
		{
			ID:           "last-name",
			Name:         LastName,
			Label:        "Last Name",
			Placeholder:  "Last Name",
			Required:     true,
			Type:         TextInput,
			Autocomplete: "family-name",
		},
		{
			ID:           "email",
			Name:         Email,
			Label:        "Email Address",
			Placeholder:  "Email Address",
			Required:     true,
			Type:         EmailInput,
			Autocomplete: "email",
		},
		{
			ID:           "password",
			Name:         Password,
			Label:        "Password",
			Placeholder:  "Password",
			Required:     true,
			Type:         PasswordInput,
			Autocomplete: "new-password",
		},
	}
}

// Values holds the four values of a submission.
type Values struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Get returns the value of a single field.
func (v Values) Get(f Field) string {
	switch f {
	case FirstName:
		return v.FirstName
	case LastName:
		return v.LastName
	case Email:
		return v.Email
	case Password:
		return v.Password
	}
	return ""
}

// Set updates a single field value.  Unknown fields are ignored.
func (v *Values) Set(f Field, value string) {
	switch f {
	case FirstName:
		v.FirstName = value
	case LastName:
		v.LastName = value
	case Email:
		v.Email = value
	case Password:
		v.Password = value
	}
}

// FromMap builds Values from posted form data.  Only the first value of each
// known field is used.
func FromMap(m map[string][]string) Values {
	var v Values
	for _, f := range Fields {
		if vals := m[string(f)]; len(vals) > 0 {
			v.Set(f, vals[0])
		}
	}
	return v
}
