package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// rollNumberPattern accepts exam roll numbers such as "2024JEE00123".
var rollNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{3,31}$`)

var trans ut.Translator

// Setup registers JSON field naming, custom tags and English translations on
// Gin's binding engine. Call once during startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}
	Register(v)
}

// Register configures v. Split from Setup so tests can use a bare validator.
func Register(v *govalidator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("rollnumber", func(fl govalidator.FieldLevel) bool {
		return ValidRollNumber(fl.Field().String())
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	_ = v.RegisterTranslation("rollnumber", trans,
		func(ut ut.Translator) error {
			return ut.Add("rollnumber", "{0} must be 4-32 letters, digits or dashes", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			msg, _ := ut.T("rollnumber", fe.Field())
			return msg
		},
	)
}

// ValidRollNumber reports whether s, after trimming, is a well-formed roll number.
func ValidRollNumber(s string) bool {
	return rollNumberPattern.MatchString(strings.TrimSpace(s))
}

// TranslateErrors maps a binding error to field name -> message. Errors that
// are not validation failures come back under "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans != nil {
				fields[fe.Field()] = fe.Translate(trans)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
func Bind(c *gin.Context, dst any) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}

// Struct validates v outside a request, using the same rules as Bind.
func Struct(v any) map[string]string {
	if err := binding.Validator.ValidateStruct(v); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
