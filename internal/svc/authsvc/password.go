package authsvc

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/chirp/internal/domain"
)

func hashPassword(password string, cost int) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, errors.Join(domain.ErrPasswordTooLong, err)
	}

	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}

func checkPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidCredentials
		}

		return fmt.Errorf("compare password: %w", err)
	}

	return nil
}
