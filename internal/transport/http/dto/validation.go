package dto

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/baechuer/real-time-ressys/services/identity-service/internal/domain"
)

// emailPattern is the address shape accepted by registration and the
// token-bearing account requests.
var emailPattern = regexp.MustCompile(`^\w+[\w.-]*@\w+((-\w+)|(\w*))\.[a-z]{2,3}$`)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Error messages name fields by their `label` tag, falling back to the JSON name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("identity_email", validateEmailFormat)
	_ = validate.RegisterValidation("strlen", validateStrLen)

	enLocale := en.New()
	trans, _ = ut.New(enLocale, enLocale).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	registerMessage("required", "The {0} field is required.")
	registerMessage("identity_email", "Invalid email address.")
	_ = validate.RegisterTranslation("strlen", trans,
		func(t ut.Translator) error {
			return t.Add("strlen", "{0} must be at least {1}, and maximum {2} characters.", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			lo, hi, _ := strLenBounds(fe.Param())
			msg, _ := t.T("strlen", fe.Field(), strconv.Itoa(lo), strconv.Itoa(hi))
			return msg
		},
	)
}

func registerMessage(tag, text string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}

func validateEmailFormat(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// validateStrLen checks the rune length against a "min:max" parameter.
func validateStrLen(fl validator.FieldLevel) bool {
	lo, hi, ok := strLenBounds(fl.Param())
	if !ok {
		return false
	}
	n := utf8.RuneCountInString(fl.Field().String())
	return n >= lo && n <= hi
}

func strLenBounds(param string) (int, int, bool) {
	a, b, found := strings.Cut(param, ":")
	if !found {
		return 0, 0, false
	}
	lo, err1 := strconv.Atoi(a)
	hi, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// validateStruct runs the struct tags and folds every failure into one
// validation_failed error carrying the translated messages.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrInternal(err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(trans))
	}
	return domain.ErrValidation(msgs)
}
