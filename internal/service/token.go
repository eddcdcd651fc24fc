package service

import (
	"errors"

	"github.com/forgo/lending/api/internal/model"
	"github.com/forgo/lending/api/pkg/jwt"
)

// TokenService issues and checks access tokens
type TokenService struct {
	jwtService *jwt.Service
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	JWTService *jwt.Service
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	return &TokenService{jwtService: cfg.JWTService}
}

// AccessToken is the response body of a successful authentication
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// Issue signs an access token for account
func (s *TokenService) Issue(account *model.Account) (*AccessToken, error) {
	token, err := s.jwtService.Sign(jwt.Claims{
		UserID:   account.ID,
		Username: account.Username,
		Role:     string(account.Role),
	})
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwtService.GetExpiration().Seconds()),
	}, nil
}

// ErrUnknownRole is returned for a token whose role claim is not defined
var ErrUnknownRole = errors.New("token carries an unknown role")

// Validate checks token and returns its claims
func (s *TokenService) Validate(token string) (*jwt.Claims, error) {
	claims, err := s.jwtService.Validate(token)
	if err != nil {
		return nil, err
	}
	if !model.Role(claims.Role).IsValid() {
		return nil, ErrUnknownRole
	}
	return claims, nil
}
