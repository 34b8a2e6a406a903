package form

import (
	"strings"
	"testing"
)

func TestSanitizeRemovesScripts(t *testing.T) {
	payload := "<script>alert(1)</script>"
	in := Values{
		FirstName: "Ada" + payload,
		LastName:  payload + "Lovelace",
		Email:     "user@example.com" + payload,
		Password:  payload,
	}
	out := Sanitize(in)
	for _, f := range Fields {
		got := out.Get(f)
		if strings.Contains(got, "script") || strings.Contains(got, "alert") {
			t.Fatalf("field %s still contains executable content: %q", f, got)
		}
	}
	if out.FirstName != "Ada" || out.LastName != "Lovelace" || out.Email != "user@example.com" {
		t.Fatalf("text content lost while sanitizing: %+v", out)
	}
	if out.Password != "" {
		t.Fatalf("script-only value should sanitize to empty, got %q", out.Password)
	}
}

func TestSanitizeStripsMarkup(t *testing.T) {
	cases := map[string]string{
		"<b>Ada</b>":                          "Ada",
		`<img src=x onerror="alert(1)">`:      "",
		`<a href="javascript:alert(1)">x</a>`: "x",
		"  Grace  ":                           "Grace",
		"":                                    "",
	}
	for in, want := range cases {
		if got := SanitizeString(in); got != want {
			t.Errorf("SanitizeString(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestSanitizeLeavesValidValues(t *testing.T) {
	v := validValues()
	if got := Sanitize(v); got != v {
		t.Fatalf("valid values changed by sanitizing: %+v -> %+v", v, got)
	}
}
