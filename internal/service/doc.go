// Package service implements the lending business logic: account
// registration and authentication, the loan lifecycle and the request
// audit log.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods take the acting model.Actor explicitly and check it with the policy package
//   - Services never log; callers decide what to report
//
// Services define their own repository interfaces, so tests use
// hand-written in-memory mocks and both storage backends plug in unchanged.
//
// # Error Handling
//
// Every returned error carries one ErrorKind, recovered with KindOf:
//
//	switch service.KindOf(err) {
//	case service.KindValidation:
//	    var verr *service.ValidationError
//	    errors.As(err, &verr) // verr.Result holds the field map
//	case service.KindNotFound, service.KindForbidden:
//	    ...
//	}
//
// # Example Usage
//
//	loans := NewLoanService(LoanServiceConfig{
//	    LoanRepo:    loanRepository,
//	    AccountRepo: accountRepository,
//	})
//	loan, err := loans.Create(ctx, actor, LoanCandidate{
//	    Category: model.LoanCategoryPersonal,
//	    Amount:   decimal.NewFromInt(50000),
//	})
package service
