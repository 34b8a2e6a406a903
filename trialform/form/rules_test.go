package form

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validValues() Values {
	return Values{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "user@example.com",
		Password:  "abc12345",
	}
}

func TestValidateAllValid(t *testing.T) {
	if errs := Validate(validValues()); errs != nil {
		t.Fatalf("Valid values reported errors: %+v", errs)
	}
}

func TestValidateAllEmpty(t *testing.T) {
	got := Validate(Values{})
	want := Errors{
		{Field: FirstName, Message: "First Name is required"},
		{Field: LastName, Message: "Last Name is required"},
		{Field: Email, Message: "Email is required"},
		{Field: Password, Message: "Password is required"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateWhitespaceIsEmpty(t *testing.T) {
	v := validValues()
	v.FirstName = "   "
	got := Validate(v)
	want := Errors{{Field: FirstName, Message: "First Name is required"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNameRules(t *testing.T) {
	cases := []struct {
		value string
		msg   string
	}{
		{"Ada", ""},
		{"Mary Ann", ""},
		{strings.Repeat("a", 30), ""},
		{strings.Repeat("a", 31), "cannot exceed 30 characters"},
		{"R2D2", "should only contain letters"},
		{"O'Brien", "should only contain letters"},
		{"Anne-Marie", "should only contain letters"},
		{"<b>Ada</b>", "should only contain letters"},
		{"Zoë", "should only contain letters"},
	}
	for _, f := range []Field{FirstName, LastName} {
		for _, c := range cases {
			fe := ValidateField(f, c.value)
			if c.msg == "" {
				if fe != nil {
					t.Errorf("%s %q rejected: %s", f, c.value, fe.Message)
				}
				continue
			}
			if fe == nil {
				t.Errorf("%s %q accepted; expected %q", f, c.value, c.msg)
				continue
			}
			if !strings.HasSuffix(fe.Message, c.msg) {
				t.Errorf("%s %q: unexpected message %q (expected suffix %q)", f, c.value, fe.Message, c.msg)
			}
			if fe.Field != f {
				t.Errorf("error reported on wrong field: %s != %s", fe.Field, f)
			}
		}
	}
}

func TestNameLengthCheckedBeforePattern(t *testing.T) {
	fe := ValidateField(LastName, strings.Repeat("1", 40))
	if fe == nil || fe.Message != "Last Name cannot exceed 30 characters" {
		t.Fatalf("unexpected result for long invalid name: %+v", fe)
	}
}

func TestEmailRules(t *testing.T) {
	valid := []string{"user@example.com", "first.last+tag@sub.example.org", "a_b%c@x-y.io"}
	for _, v := range valid {
		if fe := ValidateField(Email, v); fe != nil {
			t.Errorf("email %q rejected: %s", v, fe.Message)
		}
	}
	invalid := []string{"userexample.com", "user@example", "user@example.c", "user@.com1", "@example.com", "user @example.com"}
	for _, v := range invalid {
		fe := ValidateField(Email, v)
		if fe == nil {
			t.Errorf("email %q accepted", v)
			continue
		}
		if fe.Message != "Invalid email address" {
			t.Errorf("email %q: unexpected message %q", v, fe.Message)
		}
	}
}

func TestPasswordRules(t *testing.T) {
	cases := map[string]string{
		"abc12345":   "",
		"P@ssw0rd!":  "",
		"a1b2c3d4e5": "",
		"abc1234":    "Password must be at least 8 characters",
		"a1":         "Password must be at least 8 characters",
		"abcdefgh":   "Password must contain at least one letter and one number",
		"12345678":   "Password must contain at least one letter and one number",
		"abc 12345":  "Password must contain at least one letter and one number",
		"abc#12345":  "Password must contain at least one letter and one number",
		"":           "Password is required",
	}
	for value, msg := range cases {
		fe := ValidateField(Password, value)
		if msg == "" {
			if fe != nil {
				t.Errorf("password %q rejected: %s", value, fe.Message)
			}
			continue
		}
		if fe == nil {
			t.Errorf("password %q accepted; expected %q", value, msg)
		} else if fe.Message != msg {
			t.Errorf("password %q: got %q, expected %q", value, fe.Message, msg)
		}
	}
}

func TestValidateOneErrorPerField(t *testing.T) {
	v := Values{
		FirstName: strings.Repeat("9", 31),
		LastName:  "Smith",
		Email:     "nope",
		Password:  "short",
	}
	errs := Validate(v)
	seen := make(map[Field]bool)
	for _, fe := range errs {
		if seen[fe.Field] {
			t.Fatalf("more than one error for field %s: %+v", fe.Field, errs)
		}
		seen[fe.Field] = true
	}
	if diff := cmp.Diff([]string{"firstName", "email", "password"}, errs.Fields()); diff != "" {
		t.Fatalf("failed fields mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorsWithout(t *testing.T) {
	errs := Errors{
		{Field: FirstName, Message: "a"},
		{Field: Email, Message: "b"},
	}
	rest := errs.Without(FirstName)
	if _, ok := rest.Get(FirstName); ok {
		t.Fatalf("field still present after Without: %+v", rest)
	}
	if msg, ok := rest.Get(Email); !ok || msg != "b" {
		t.Fatalf("unrelated field lost: %+v", rest)
	}
	if errs.Without(FirstName).Without(Email) != nil {
		t.Fatal("removing all fields should return nil")
	}
	if len(errs) != 2 {
		t.Fatal("Without modified the receiver")
	}
}

func TestFromMap(t *testing.T) {
	got := FromMap(map[string][]string{
		"firstName": {"Ada", "ignored"},
		"lastName":  {"Lovelace"},
		"email":     {"user@example.com"},
		"password":  {"abc12345"},
		"other":     {"dropped"},
	})
	if diff := cmp.Diff(validValues(), got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldValid(t *testing.T) {
	for _, f := range Fields {
		if !f.Valid() {
			t.Errorf("field %s reported invalid", f)
		}
	}
	if Field("username").Valid() {
		t.Error("unknown field reported valid")
	}
}
