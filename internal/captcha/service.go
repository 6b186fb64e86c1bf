package captcha

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pageturn/bookstore-backend/pkg/config"
	pkgerrors "github.com/pageturn/bookstore-backend/pkg/errors"
	"github.com/pageturn/bookstore-backend/pkg/redis"
)

// Challenge is a freshly generated arithmetic puzzle.
type Challenge struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// Service issues arithmetic challenges and verifies single-use answers.
type Service interface {
	Generate(ctx context.Context) (*Challenge, error)
	Verify(ctx context.Context, id, answer string) error
}

type service struct {
	store redis.ChallengeStore
	cfg   config.CaptchaConfig
	intn  func(n int) int
}

// Option customizes service construction.
type Option func(*service)

// WithIntn injects the random source used to build challenges.
func WithIntn(intn func(n int) int) Option {
	return func(s *service) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// NewService constructs a captcha service backed by the given store.
func NewService(store redis.ChallengeStore, cfg config.CaptchaConfig, opts ...Option) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("captcha ttl must be positive")
	}
	s := &service{
		store: store,
		cfg:   cfg,
		intn:  rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) Generate(ctx context.Context) (*Challenge, error) {
	a := s.intn(20) + 1
	b := s.intn(20) + 1

	var question string
	var answer int
	switch s.intn(3) {
	case 0:
		question = fmt.Sprintf("%d + %d", a, b)
		answer = a + b
	case 1:
		// Keep subtraction results non-negative.
		if b > a {
			a, b = b, a
		}
		question = fmt.Sprintf("%d - %d", a, b)
		answer = a - b
	default:
		question = fmt.Sprintf("%d * %d", a, b)
		answer = a * b
	}

	id := uuid.NewString()
	if err := s.store.StoreChallenge(ctx, id, strconv.Itoa(answer), s.cfg.TTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store challenge")
	}

	return &Challenge{
		ID:        id,
		Question:  question,
		ExpiresIn: int(s.cfg.TTL.Seconds()),
	}, nil
}

// Verify consumes the challenge: whether the answer matches or not, the
// challenge is deleted and cannot be retried.
func (s *service) Verify(ctx context.Context, id, answer string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "captcha id is required")
	}

	expected, err := s.store.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "captcha expired or not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load challenge")
	}

	if err := s.store.DeleteChallenge(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete challenge")
	}

	if strings.TrimSpace(answer) != expected {
		return pkgerrors.New(pkgerrors.CodeValidation, "incorrect captcha answer")
	}
	return nil
}
