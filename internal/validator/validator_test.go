package validator

import (
	"testing"

	govalidator "github.com/go-playground/validator/v10"
)

func TestValidRollNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024JEE00123", true},
		{"  ROLL-0001 ", true},
		{"abc", false},
		{"", false},
		{"-1234", false},
		{"roll 123", false},
	}
	for _, tt := range tests {
		if got := ValidRollNumber(tt.in); got != tt.want {
			t.Errorf("ValidRollNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTranslateErrorsUsesJSONNames(t *testing.T) {
	v := govalidator.New()
	Register(v)

	type login struct {
		RollNumber string `json:"roll_number" validate:"required,rollnumber"`
	}
	err := v.Struct(login{RollNumber: "x"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	fields := TranslateErrors(err)
	msg, ok := fields["roll_number"]
	if !ok {
		t.Fatalf("fields = %v, want roll_number key", fields)
	}
	if msg == "" {
		t.Error("empty message")
	}
}
