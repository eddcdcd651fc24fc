package model

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Account field constraints
const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxEmailLength    = 100
	MinAge            = 18
	MaxAge            = 120
	MinPasswordLength = 6
	MaxPasswordBytes  = 72 // bcrypt input limit
	MaxAmountScale    = 2
	CurrencyLength    = 3
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`(?i)^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidationResult holds at most one message per field.
// It is valid iff no message was recorded.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

func newValidationResult() ValidationResult {
	return ValidationResult{Valid: true, Errors: make(map[string]string)}
}

// record keeps the first message set for a field
func (r *ValidationResult) record(field, message string) {
	r.Valid = false
	if _, exists := r.Errors[field]; exists {
		return
	}
	r.Errors[field] = message
}

// Has reports whether a message was recorded for field
func (r ValidationResult) Has(field string) bool {
	_, ok := r.Errors[field]
	return ok
}

// FieldErrors returns the recorded messages ordered by field name
func (r ValidationResult) FieldErrors() []FieldError {
	fields := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]FieldError, 0, len(fields))
	for _, field := range fields {
		out = append(out, FieldError{Field: field, Message: r.Errors[field]})
	}
	return out
}

// ValidateAccount checks a candidate account without a password. Flows that
// take a password use ValidateAccountWithPassword.
func ValidateAccount(candidate *Account) ValidationResult {
	result := newValidationResult()
	validateAccountFields(&result, candidate)
	return result
}

// ValidateAccountWithPassword checks a candidate account together with the
// plaintext password of a registration or elevation flow. A nil password is
// reported as missing; an empty string counts as supplied and fails the
// minimum length.
func ValidateAccountWithPassword(candidate *Account, password *string) ValidationResult {
	result := newValidationResult()
	validateAccountFields(&result, candidate)

	if password == nil {
		result.record("Password", "Password is required")
	} else if utf8.RuneCountInString(*password) < MinPasswordLength {
		result.record("Password", "Password must be at least 6 characters long")
	} else if len(*password) > MaxPasswordBytes {
		result.record("Password", "Password cannot exceed 72 bytes")
	}

	return result
}

func validateAccountFields(result *ValidationResult, a *Account) {
	validateName(result, "FirstName", "First name", a.FirstName)
	validateName(result, "LastName", "Last name", a.LastName)

	switch n := utf8.RuneCountInString(a.Username); {
	case strings.TrimSpace(a.Username) == "":
		result.record("Username", "Username is required")
	case n < MinUsernameLength || n > MaxUsernameLength:
		result.record("Username", "Username must be between 3 and 30 characters")
	case !usernamePattern.MatchString(a.Username):
		result.record("Username", "Username can only contain letters, numbers, and underscores")
	}

	switch {
	case strings.TrimSpace(a.Email) == "":
		result.record("Email", "Email is required")
	case utf8.RuneCountInString(a.Email) > MaxEmailLength:
		result.record("Email", "Email cannot exceed 100 characters")
	case !emailPattern.MatchString(a.Email):
		result.record("Email", "Invalid email format")
	}

	if a.Age < MinAge || a.Age > MaxAge {
		result.record("Age", "Age must be between 18 and 120")
	}
}

func validateName(result *ValidationResult, field, label, value string) {
	if strings.TrimSpace(value) == "" {
		result.record(field, label+" is required")
		return
	}
	if n := utf8.RuneCountInString(value); n < MinNameLength || n > MaxNameLength {
		result.record(field, label+" must be between 2 and 50 characters")
	}
}

// ValidateLoan checks the caller-controlled fields of a candidate loan.
// Both amount rules are evaluated; the first one that fails owns the
// Amount message.
func ValidateLoan(candidate *Loan) ValidationResult {
	result := newValidationResult()

	if !candidate.Category.IsValid() {
		result.record("Category", "Invalid loan type")
	}

	if !candidate.Amount.IsPositive() {
		result.record("Amount", "Amount must be greater than 0")
	}
	if candidate.Amount.LessThan(MinLoanAmount) || candidate.Amount.GreaterThan(MaxLoanAmount) {
		result.record("Amount", "Amount must be between 0.01 and 999,999,999.99")
	}
	if !candidate.Amount.Equal(candidate.Amount.Truncate(MaxAmountScale)) {
		result.record("Amount", "Amount cannot have more than 2 decimal places")
	}

	if candidate.Currency != nil && strings.TrimSpace(*candidate.Currency) != "" {
		currency := *candidate.Currency
		if utf8.RuneCountInString(currency) != CurrencyLength {
			result.record("Currency", "Currency must be exactly 3 characters (e.g., USD, EUR)")
		} else if !currencyPattern.MatchString(currency) {
			result.record("Currency", "Currency must be 3 uppercase letters (e.g., USD, EUR, GBP)")
		}
	}

	return result
}
