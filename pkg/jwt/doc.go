// Package jwt provides JSON Web Token utilities for the lending API.
//
// Tokens are HS256-signed and carry the account ID, username and role.
//
// # Token Generation
//
//	service, err := jwt.NewService(jwt.Config{
//	    Secret:         os.Getenv("JWT_SECRET"),
//	    Issuer:         "lending-api",
//	    ExpirationMins: 60,
//	})
//
//	token, err := service.Sign(jwt.Claims{UserID: id, Username: name, Role: "Standard"})
//
// # Token Validation
//
//	claims, err := service.Validate(tokenString)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the caller to authenticate again
//	}
package jwt
