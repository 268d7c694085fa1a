package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/koopkredit/lending-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new member with hashed password. New members start
// unapproved and cannot apply for loans until an administrator approves them.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.Member, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	member := &models.Member{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         "member",
		Approved:     false,
	}

	if err := s.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}

	s.log.Infof("Member registered: %s", member.Email)
	return member, nil
}

// Login authenticates a member and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	member, err := s.store.FindMemberByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", member.ID),
		"role": member.Role,
		"exp":  jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Member logged in: %s", member.Email)
	return tokenString, nil
}

// ApproveMember flips a member's approved flag
func (s *Service) ApproveMember(ctx context.Context, memberID int64) error {
	if err := s.store.ApproveMember(ctx, memberID); err != nil {
		return err
	}
	s.log.Infof("Member approved: %d", memberID)
	return nil
}

// memberIDFromContext extracts the authenticated member id set by the auth
// middleware.
func memberIDFromContext(ctx context.Context) (int64, error) {
	idStr, ok := ctx.Value("userID").(string)
	if !ok || idStr == "" {
		return 0, fmt.Errorf("user ID not found in context")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID: %w", err)
	}
	return id, nil
}
