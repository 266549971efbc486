package auth

import "fmt"

const defaultMinPasswordLen = 6

// PasswordPolicy is the store-level password rule set applied on every write.
type PasswordPolicy struct {
	MinLength int
}

func NewPasswordPolicy(minLen int) PasswordPolicy {
	if minLen <= 0 {
		minLen = defaultMinPasswordLen
	}
	return PasswordPolicy{MinLength: minLen}
}

// Validate returns one message per violated rule, or nil.
func (p PasswordPolicy) Validate(password string) []string {
	var errs []string
	if len(password) < p.MinLength {
		errs = append(errs, fmt.Sprintf("Passwords must be at least %d characters.", p.MinLength))
	}
	return errs
}
