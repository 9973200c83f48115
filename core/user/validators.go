package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/edportal/core"
)

var (
	errBlankName  = errors.New("name cannot be blank")
	errBlankEmail = errors.New("email cannot be blank")

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers the user validations on `v`.
func InitValidators(v *core.Validator) {
	v.Validate.RegisterStructValidation(userStructValidation, NewUser{})

	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(v.Validate, v.Translator, pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if usr, ok := sl.Current().Interface().(NewUser); ok && usr.Password != "" {
		validatePassword(usr.Password, usr.Name, usr.Email, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	// - minLen: 8
	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range runes {
		// - no whitespace
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}

	// - not all numeric
	if digitCount == len(runes) {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	emailName := strings.SplitN(email, "@", 2)[0]
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, emailName) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
