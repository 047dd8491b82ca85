package auth

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string
	Password string
}

// Validate checks required fields and email syntax.
func (f *LoginForm) Validate() FieldErrors {
	f.Email = strings.TrimSpace(f.Email)
	errs := FieldErrors{}
	checkEmail(errs, f.Email)
	if f.Password == "" {
		errs["password"] = "This field is required."
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Email    string
	Name     string
	Password string
	Confirm  string
}

// Validate checks field presence, lengths and that the passwords match.
// Email uniqueness is checked by Service.Register.
func (f *RegisterForm) Validate() FieldErrors {
	f.Email = strings.TrimSpace(f.Email)
	f.Name = strings.TrimSpace(f.Name)
	errs := FieldErrors{}

	if checkEmail(errs, f.Email) {
		checkLength(errs, "email", f.Email, 6, 40)
	}
	if f.Name == "" {
		errs["name"] = "This field is required."
	} else {
		checkLength(errs, "name", f.Name, 3, 40)
	}
	if f.Password == "" {
		errs["password"] = "This field is required."
	} else {
		checkLength(errs, "password", f.Password, 6, 25)
	}
	if f.Confirm == "" {
		errs["confirm"] = "This field is required."
	} else if f.Confirm != f.Password {
		errs["confirm"] = "Passwords must match."
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// checkEmail records an error and returns false when email is missing or
// not a bare address.
func checkEmail(errs FieldErrors, email string) bool {
	if email == "" {
		errs["email"] = "This field is required."
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		errs["email"] = "Invalid email address."
		return false
	}
	return true
}

func checkLength(errs FieldErrors, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	if n < min || n > max {
		errs[field] = fmt.Sprintf("Field must be between %d and %d characters long.", min, max)
	}
}
