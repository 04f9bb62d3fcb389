package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ai-editor-be/internal/config"
	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/logger"
)

var (
	ErrInvalidPassword    = errors.New("invalid password")
	ErrGateNotConfigured  = errors.New("password gate is not configured")
	ErrJWTSecretMissing   = errors.New("jwt secret is not configured")
	ErrGatePasswordFormat = errors.New("gate password hash is not a bcrypt hash")
)

// TokenSubject is the subject of every token the gate issues.
const TokenSubject = "editor"

type IGateService interface {
	Unlock(ctx context.Context, req *dto.UnlockRequest) (*dto.UnlockResponse, error)
}

type gateService struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	log    logger.ILogger
	now    func() time.Time
}

// NewGateService prepares the bcrypt hash once. A plain GATE_PASSWORD is
// hashed at startup so both settings are checked the same way.
func NewGateService(cfg config.GateConfig, log logger.ILogger) (IGateService, error) {
	if cfg.JWTSecret == "" {
		return nil, ErrJWTSecretMissing
	}

	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		hash = []byte(cfg.PasswordHash)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGatePasswordFormat, err)
		}
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash gate password: %w", err)
		}
		hash = h
	default:
		return nil, ErrGateNotConfigured
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &gateService{
		hash:   hash,
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}, nil
}

func (s *gateService) Unlock(ctx context.Context, req *dto.UnlockRequest) (*dto.UnlockResponse, error) {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(req.Password)); err != nil {
		s.log.Warn("GateService", "Rejected unlock attempt", nil)
		return nil, ErrInvalidPassword
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   TokenSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.log.Info("GateService", "Editor unlocked", map[string]interface{}{"expires_at": expiresAt})
	return &dto.UnlockResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}
