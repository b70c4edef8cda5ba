package user

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache is the subset of the cache layer the user service needs.
type Cache interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	SaveUser(ctx context.Context, user *User) error
	InvalidateUser(ctx context.Context, userID string) error
}

// Service resolves users for the webhook hot path and records activity
// timestamps after processing attempts.
type Service interface {
	Resolve(ctx context.Context, userID string) (*User, error)
	TrackActivity(ctx context.Context, userID string, ts time.Time) error
	TrackProcessed(ctx context.Context, userID string, ts time.Time) error
}

type userService struct {
	userRepository Repository
	cache          Cache
}

func NewUserService(userRepository Repository, cache Cache) Service {
	return &userService{
		userRepository: userRepository,
		cache:          cache,
	}
}

// Resolve looks the user up cache-first. Cache errors are not fatal; the
// repository stays the source of truth.
func (s *userService) Resolve(ctx context.Context, userID string) (*User, error) {
	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, userID)
		if err == nil && cached != nil {
			logrus.WithField("user_id", userID).Debug("User resolved from cache")
			return cached, nil
		}
	}

	user, err := s.userRepository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveUser(ctx, user); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("Failed to cache user")
		}
	}

	return user, nil
}

func (s *userService) TrackActivity(ctx context.Context, userID string, ts time.Time) error {
	if err := s.userRepository.TouchLastActivity(ctx, userID, ts); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *userService) TrackProcessed(ctx context.Context, userID string, ts time.Time) error {
	if err := s.userRepository.MarkProcessed(ctx, userID, ts); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *userService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to invalidate cached user")
	}
}
