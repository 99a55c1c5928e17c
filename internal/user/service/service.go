package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/shop-dash/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/shop-dash/backend/internal/common/http"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/messaging/rabbitmq"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
	"github.com/AlibekovAA/shop-dash/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/shop-dash/backend/internal/user/repository"
)

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type UserRegisteredEvent struct {
	UserID       domain.ID `json:"userId"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type UserDeletedEvent struct {
	UserID    domain.ID `json:"userId"`
	DeletedAt time.Time `json:"deletedAt"`
}

type RegistryService struct {
	repo   userrepo.Repository
	events EventPublisher
	hasher commoncrypto.PasswordHasher
	now    func() time.Time
	log    *logger.Logger
}

func NewRegistryService(repo userrepo.Repository, events EventPublisher, log *logger.Logger) *RegistryService {
	if events == nil {
		events = rabbitmq.NoopPublisher{}
	}
	return &RegistryService{
		repo:   repo,
		events: events,
		hasher: commoncrypto.NewBcryptHasher(),
		now:    time.Now,
		log:    log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates a storefront submission and stores it with a bcrypt
// hash of the password. Nothing is written when validation fails.
func (s *RegistryService) Register(ctx context.Context, reg domain.Registration) (domain.RegistrationResult, error) {
	reg.FullName = strings.TrimSpace(reg.FullName)
	reg.Phone = strings.TrimSpace(reg.Phone)
	reg.Email = normalizeEmail(reg.Email)

	if err := commonhttp.ValidateStruct(reg); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"action": "register_invalid",
		}).Warnf("registration rejected: %v", err)
		return domain.RegistrationResult{}, err
	}
	if len(reg.Password) < constants.PasswordMinLength || len(reg.Password) > constants.PasswordMaxLength {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return domain.RegistrationResult{}, ErrPasswordLength
	}

	exists, err := s.repo.ExistsByEmail(ctx, reg.Email)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return domain.RegistrationResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}
	if exists {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"action": "register_conflict",
		}).Warn("registration rejected: email already registered")
		return domain.RegistrationResult{}, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return domain.RegistrationResult{}, commonerrors.ErrInternalError.WithCause(err)
	}

	now := s.now().UTC()
	id, err := s.repo.Create(ctx, domain.RegisteredUser{
		FullName:      reg.FullName,
		Email:         reg.Email,
		Phone:         reg.Phone,
		PasswordHash:  hash,
		TermsAccepted: reg.TermsAccepted,
		RegisteredAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrEmailAlreadyExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return domain.RegistrationResult{}, ErrEmailTaken
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		s.log.WithFields(ctx, logger.Fields{
			"action": "register_failed",
		}).Errorf("registration failed: %v", err)
		return domain.RegistrationResult{}, commonerrors.ErrDatabaseError.WithCause(err)
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": id,
		"action":  "user_registered",
	}).Info("user registered")

	s.publish(ctx, rabbitmq.RoutingUserRegistered, UserRegisteredEvent{UserID: id, Email: reg.Email, RegisteredAt: now})

	return domain.RegistrationResult{ID: id, Email: reg.Email, RegisteredAt: now}, nil
}

func (s *RegistryService) List(ctx context.Context) ([]domain.RegisteredUser, error) {
	users, err := s.repo.List(ctx, constants.RegisteredUsersListLimit)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "list_users_failed",
		}).Errorf("list registered users failed: %v", err)
		return nil, commonerrors.ErrDatabaseError.WithCause(err)
	}
	return users, nil
}

func (s *RegistryService) Get(ctx context.Context, id domain.ID) (domain.RegisteredUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.RegisteredUser{}, s.mapLookupError(ctx, "get", id, err)
	}
	return user, nil
}

func (s *RegistryService) Delete(ctx context.Context, id domain.ID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapLookupError(ctx, "delete", id, err)
	}

	metrics.RegistryDeletionsTotal.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id": id,
		"action":  "user_deleted",
	}).Info("registered user deleted")

	s.publish(ctx, rabbitmq.RoutingUserDeleted, UserDeletedEvent{UserID: id, DeletedAt: s.now().UTC()})
	return nil
}

func (s *RegistryService) mapLookupError(ctx context.Context, op string, id domain.ID, err error) error {
	switch {
	case errors.Is(err, userrepo.ErrInvalidID):
		return ErrInvalidUserID
	case errors.Is(err, userrepo.ErrUserNotFound):
		return ErrUserNotFound
	}
	s.log.WithFields(ctx, logger.Fields{
		"user_id": id,
		"action":  op + "_user_failed",
	}).Errorf("%s registered user failed: %v", op, err)
	return commonerrors.ErrDatabaseError.WithCause(err)
}

// publish is best effort; a broker outage never fails the request.
func (s *RegistryService) publish(ctx context.Context, key string, event any) {
	if err := s.events.Publish(ctx, key, event); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"routing_key": key,
			"action":      "event_publish_failed",
		}).Warnf("registry event not published: %v", err)
	}
}
