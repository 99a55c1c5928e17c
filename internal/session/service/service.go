package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/shop-dash/backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/jwtverify"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
	"github.com/AlibekovAA/shop-dash/backend/internal/session/domain"
	"github.com/AlibekovAA/shop-dash/backend/internal/session/repository"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
)

type TokenVerifier interface {
	Verify(token string) (jwtverify.Claims, error)
}

type CodeExchanger interface {
	ExchangeCode(ctx context.Context, shop, code string) (shopify.AccessToken, error)
}

type WebhookRegistrar interface {
	RegisterUninstall(ctx context.Context, shop, accessToken string) error
}

type Config struct {
	APIKey    string
	APISecret string
	Scopes    []string
	AppURL    string
	StateTTL  time.Duration
}

type Service struct {
	sessions  repository.Repository
	states    repository.StateRepository
	verifier  TokenVerifier
	exchanger CodeExchanger
	webhooks  WebhookRegistrar
	stateGen  commoncrypto.IDGenerator
	cfg       Config
	now       func() time.Time
	log       *logger.Logger
}

func NewService(
	sessions repository.Repository,
	states repository.StateRepository,
	verifier TokenVerifier,
	exchanger CodeExchanger,
	webhooks WebhookRegistrar,
	cfg Config,
	log *logger.Logger,
) *Service {
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = constants.OAuthStateTTL
	}
	return &Service{
		sessions:  sessions,
		states:    states,
		verifier:  verifier,
		exchanger: exchanger,
		webhooks:  webhooks,
		stateGen:  &commoncrypto.StateGenerator{Size: constants.OAuthStateSize},
		cfg:       cfg,
		now:       time.Now,
		log:       log,
	}
}

// Authenticate verifies an App Bridge session token and loads the offline
// session of the shop it was issued for.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Session, jwtverify.Claims, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		metrics.SessionValidationsTotal.WithLabelValues("invalid_token").Inc()
		return domain.Session{}, jwtverify.Claims{}, err
	}

	session, outcome, err := s.offlineSession(ctx, claims.Shop)
	metrics.SessionValidationsTotal.WithLabelValues(outcome).Inc()
	if err != nil {
		return domain.Session{}, jwtverify.Claims{}, err
	}
	return session, claims, nil
}

// CheckSession reports whether shop still has a usable offline session.
// Long-lived connections call it to notice uninstalls after the handshake.
func (s *Service) CheckSession(ctx context.Context, shop string) error {
	_, _, err := s.offlineSession(ctx, shop)
	return err
}

func (s *Service) offlineSession(ctx context.Context, shop string) (domain.Session, string, error) {
	session, err := s.sessions.FindByID(ctx, domain.OfflineID(shop))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domain.Session{}, "not_installed", commonerrors.ErrMissingSession
		}
		return domain.Session{}, "error", commonerrors.ErrDatabaseError.WithCause(err)
	}
	if session.IsExpired(s.now()) {
		return domain.Session{}, "expired", commonerrors.ErrMissingSession
	}
	return session, "ok", nil
}

// BeginInstall records a fresh state and returns the authorize URL to
// redirect the merchant to.
func (s *Service) BeginInstall(ctx context.Context, rawShop string) (string, error) {
	shop := shopify.NormalizeShop(rawShop)
	if !shopify.IsValidShopDomain(shop) {
		return "", ErrInvalidShop
	}

	state, err := s.stateGen.NewID()
	if err != nil {
		return "", commonerrors.ErrInternalError.WithCause(err)
	}

	err = s.states.SaveState(ctx, domain.OAuthState{
		State:     state,
		Shop:      shop,
		ExpiresAt: s.now().Add(s.cfg.StateTTL),
	})
	if err != nil {
		return "", commonerrors.ErrDatabaseError.WithCause(err)
	}

	s.log.WithFields(ctx, logger.Fields{
		"shop":   shop,
		"action": "install_started",
	}).Info("install started")

	return shopify.AuthorizeURL(shop, s.cfg.APIKey, s.cfg.Scopes, s.callbackURL(), state), nil
}

// CompleteInstall handles the OAuth callback and returns where the
// merchant should land inside the Shopify admin.
func (s *Service) CompleteInstall(ctx context.Context, query url.Values) (string, error) {
	shop := shopify.NormalizeShop(query.Get("shop"))

	if !shopify.VerifyQueryHMAC(query, s.cfg.APISecret) {
		metrics.InstallsTotal.WithLabelValues("invalid_hmac").Inc()
		return "", commonerrors.ErrInvalidSignature
	}
	if !shopify.IsValidShopDomain(shop) {
		metrics.InstallsTotal.WithLabelValues("invalid_shop").Inc()
		return "", ErrInvalidShop
	}
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		metrics.InstallsTotal.WithLabelValues("missing_code").Inc()
		return "", ErrMissingCode
	}

	st, err := s.states.ConsumeState(ctx, query.Get("state"))
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			metrics.InstallsTotal.WithLabelValues("invalid_state").Inc()
			return "", ErrInvalidState
		}
		metrics.InstallsTotal.WithLabelValues("error").Inc()
		return "", commonerrors.ErrDatabaseError.WithCause(err)
	}
	if st.Shop != shop || !s.now().Before(st.ExpiresAt) {
		metrics.InstallsTotal.WithLabelValues("invalid_state").Inc()
		return "", ErrInvalidState
	}

	token, err := s.exchanger.ExchangeCode(ctx, shop, code)
	if err != nil {
		metrics.InstallsTotal.WithLabelValues("exchange_failed").Inc()
		return "", err
	}

	now := s.now()
	err = s.sessions.Upsert(ctx, domain.Session{
		ID:          domain.OfflineID(shop),
		Shop:        shop,
		AccessToken: token.Token,
		Scope:       token.Scope,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		metrics.InstallsTotal.WithLabelValues("error").Inc()
		return "", commonerrors.ErrDatabaseError.WithCause(err)
	}

	if s.webhooks != nil {
		if err := s.webhooks.RegisterUninstall(ctx, shop, token.Token); err != nil {
			s.log.WithFields(ctx, logger.Fields{
				"shop":   shop,
				"action": "webhook_registration_failed",
			}).Warnf("uninstall webhook registration failed: %v", err)
		}
	}

	metrics.InstallsTotal.WithLabelValues("ok").Inc()
	s.log.WithFields(ctx, logger.Fields{
		"shop":   shop,
		"scope":  token.Scope,
		"action": "install_completed",
	}).Info("install completed")

	return fmt.Sprintf("https://%s/admin/apps/%s", shop, s.cfg.APIKey), nil
}

// DeleteShopSessions forgets a shop after uninstall or a redact request.
func (s *Service) DeleteShopSessions(ctx context.Context, shop string) error {
	deleted, err := s.sessions.DeleteByShop(ctx, shop)
	if err != nil {
		return commonerrors.ErrDatabaseError.WithCause(err)
	}
	s.log.WithFields(ctx, logger.Fields{
		"shop":    shop,
		"deleted": deleted,
		"action":  "shop_sessions_deleted",
	}).Info("shop sessions deleted")
	return nil
}

func (s *Service) callbackURL() string {
	return strings.TrimRight(s.cfg.AppURL, "/") + "/api/auth/callback"
}
