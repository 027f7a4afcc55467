package services

import (
	"fmt"

	"match-mate/auth"
	"match-mate/domain"
	"match-mate/errors"
	"match-mate/repositories"
	"match-mate/search"
)

type IAuthService interface {
	Signup(req auth.SignupRequest) (Token, error)
	Login(email, password string) (Token, error)
}

type Token string

// AuthService bootstraps identities: it hashes credentials, persists the
// profile, keeps the match index in sync and issues session tokens. The
// realtime core never sees passwords or tokens, only the user id.
type AuthService struct {
	profiles repositories.IProfileRepository
	index    *search.MatchIndex
	issuer   *auth.TokenIssuer
}

func NewAuthService(profiles repositories.IProfileRepository, index *search.MatchIndex, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{profiles: profiles, index: index, issuer: issuer}
}

func (s *AuthService) Signup(req auth.SignupRequest) (Token, error) {
	// Validate before any expensive cryptographic operation.
	if err := auth.ValidateSignup(req); err != nil {
		return "", err
	}

	// Hashing happens in the service layer to keep the repository unaware of
	// plain passwords.
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	profile, err := s.profiles.Create(domain.Profile{
		Email:        req.Email,
		PasswordHash: hashed,
		Name:         req.Name,
		City:         req.City,
		Interests:    req.Interests,
	})
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the email is taken.
	}

	if err := s.index.Index(profile); err != nil {
		// The profile exists either way; the index catches up on next update.
		return "", fmt.Errorf("indexing profile: %w", err)
	}

	token, err := s.issuer.Generate(profile.ID)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	profile, err := s.profiles.GetByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks.
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, profile.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.Generate(profile.ID)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}
