// Package model defines domain entities, validation rules and API error
// shapes for the lending API.
//
// # Domain Entities
//
//   - Account: account holder or accountant, with a unique username
//   - Loan: loan request owned by exactly one account
//   - RequestLog: audit record of one API request
//   - Actor: the authenticated identity and role an operation runs as
//
// # Validation
//
// ValidateAccount, ValidateAccountWithPassword and ValidateLoan are pure
// functions. They check every rule and collect at most one message per
// field:
//
//	result := model.ValidateLoan(&model.Loan{
//	    Category: model.LoanCategoryPersonal,
//	    Amount:   decimal.NewFromInt(-1000),
//	    Currency: &currency, // "usd"
//	})
//	// result.Valid == false
//	// result.Errors["Amount"], result.Errors["Currency"] are set
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go. Validation
// problems carry the field map unchanged under field_errors.
package model
