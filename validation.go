package accounts

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// Canonical validation rule set. One rule set for every sign-up, reset,
// and change-password path; handler-local variants are not allowed to
// drift from these.
var (
	nameRe            = regexp.MustCompile(`^[a-zA-Z ]+$`)
	mobileRe          = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	passwordLowerRe   = regexp.MustCompile(`[a-z]`)
	passwordUpperRe   = regexp.MustCompile(`[A-Z]`)
	passwordDigitRe   = regexp.MustCompile(`[0-9]`)
	passwordSpecialRe = regexp.MustCompile(`[@$!%*?&]`)
	passwordCharsetRe = regexp.MustCompile(`^[A-Za-z0-9@$!%*?&]+$`)
)

// mobileRegion anchors phone parsing; the 6-9 leading digit rule is the
// Indian mobile numbering plan.
const mobileRegion = "IN"

// PasswordRules returns the canonical password policy: at least 8
// characters drawn from letters, digits and @$!%*?&, with at least one
// lower, one upper, one digit, and one special.
func PasswordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(8, 100),
		validation.Match(passwordCharsetRe).Error("must only contain letters, digits and @$!%*?&"),
		validation.Match(passwordLowerRe).Error("must contain a lowercase letter"),
		validation.Match(passwordUpperRe).Error("must contain an uppercase letter"),
		validation.Match(passwordDigitRe).Error("must contain a digit"),
		validation.Match(passwordSpecialRe).Error("must contain one of @$!%*?&"),
	}
}

// NameRules returns the canonical display-name policy.
func NameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(1, 200),
		validation.Match(nameRe).Error("must only contain letters and spaces"),
	}
}

// EmailRules returns the canonical email policy.
func EmailRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Length(6, 100),
		is.Email,
	}
}

// MobileRules returns the canonical mobile number policy.
func MobileRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.Match(mobileRe).Error("must be a 10 digit mobile number"),
	}
}

// ValidatePassword applies PasswordRules to a bare value.
func ValidatePassword(password string) error {
	if err := validation.Validate(password, PasswordRules()...); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password").
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// ValidateMobile applies MobileRules and cross-checks the number parses
// as a valid mobile number for the configured region.
func ValidateMobile(mobile string) error {
	if err := validation.Validate(mobile, MobileRules()...); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid mobile number").
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	num, err := phonenumbers.Parse(mobile, mobileRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return goerrors.New("invalid mobile number", goerrors.CategoryValidation).
			WithTextCode(TextCodeValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
