package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates professionals and issues the identity tokens the
// middleware later decodes. Authorization policy beyond identity and role is
// enforced by the callers, not here.
type AuthService interface {
	Login(email, password string) (string, error)
}

type authService struct {
	professionals ProfessionalStore
}

func NewAuthService(professionals ProfessionalStore) AuthService {
	return &authService{professionals: professionals}
}

func (s *authService) Login(email, password string) (string, error) {
	professional, err := s.professionals.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if professional == nil || !professional.Active {
		return "", errors.New("invalid credentials")
	}

	err = bcrypt.CompareHashAndPassword([]byte(professional.PasswordHash), []byte(password))
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET not set")
	}

	claims := jwt.MapClaims{
		"professional_id": professional.ID,
		"email":           professional.Email,
		"role":            string(professional.Role),
		"exp":             time.Now().Add(12 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
