package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"square-payment-gateway/internal/client"
	"square-payment-gateway/internal/config"
	"square-payment-gateway/internal/event"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxRenewalPeriodDays         = 30
	RecommendedRenewalPeriodDays = 14
)

// Scopes requested when a merchant authorizes the application.
var Scopes = []string{
	"MERCHANT_PROFILE_READ",
	"PAYMENTS_READ",
	"PAYMENTS_WRITE",
	"CUSTOMERS_READ",
	"CUSTOMERS_WRITE",
	"SETTLEMENTS_READ",
	"BANK_ACCOUNTS_READ",
	"ITEMS_READ",
	"ITEMS_WRITE",
	"ORDERS_READ",
	"ORDERS_WRITE",
	"EMPLOYEES_READ",
	"EMPLOYEES_WRITE",
	"TIMECARDS_READ",
	"TIMECARDS_WRITE",
}

type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

type OAuthService interface {
	GenerateAuthorizeURL(ctx context.Context, storeID int) (string, error)
	// HandleCallback completes the authorization and returns the store the
	// tokens were saved for.
	HandleCallback(ctx context.Context, params CallbackParams) (int, error)
	// Renew reports false when the store needs no renewal.
	Renew(ctx context.Context, storeID int) (bool, error)
	Revoke(ctx context.Context, storeID int) error
}

type oauthServiceImpl struct {
	credentials CredentialStore
	oauthClient client.SquareOAuthClient
	squareCfg   config.Square
	publisher   event.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

func NewOAuthService(
	credentials CredentialStore,
	oauthClient client.SquareOAuthClient,
	squareCfg config.Square,
	publisher event.Publisher,
	logger *zap.Logger,
) OAuthService {
	if publisher == nil {
		publisher = event.NewNopPublisher()
	}
	return &oauthServiceImpl{
		credentials: credentials,
		oauthClient: oauthClient,
		squareCfg:   squareCfg,
		publisher:   publisher,
		logger:      logger.Named("oauth"),
		now:         time.Now,
	}
}

func (s *oauthServiceImpl) baseURL(useSandbox bool) string {
	if useSandbox {
		return s.squareCfg.SandboxURL
	}
	return s.squareCfg.ProductionURL
}

func (s *oauthServiceImpl) GenerateAuthorizeURL(ctx context.Context, storeID int) (string, error) {
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return "", err
	}
	if creds.ApplicationID == "" {
		return "", ErrNotConfigured
	}

	now := s.now().UTC()
	creds.VerificationState = uuid.NewString()
	creds.VerificationStateCreatedAt = &now
	if err := s.credentials.Save(ctx, storeID, creds, FieldVerificationState, FieldVerificationStateCreatedAt); err != nil {
		return "", fmt.Errorf("save verification state: %w", err)
	}

	q := url.Values{}
	q.Set("client_id", creds.ApplicationID)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("session", "false")
	q.Set("state", creds.VerificationState)

	return strings.TrimRight(s.baseURL(creds.UseSandbox), "/") + "/oauth2/authorize?" + q.Encode(), nil
}

func (s *oauthServiceImpl) HandleCallback(ctx context.Context, params CallbackParams) (int, error) {
	if params.Error != "" || params.ErrorDescription != "" {
		s.logger.Warn("authorization denied",
			zap.String("error", params.Error),
			zap.String("error_description", params.ErrorDescription))
		return 0, fmt.Errorf("%w: %s %s", ErrAuthorizationDenied, params.Error, params.ErrorDescription)
	}

	if params.State == "" {
		return 0, ErrStateMismatch
	}
	storeID, err := s.credentials.FindStoreByState(ctx, params.State)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return storeID, err
	}
	if creds.VerificationState != params.State {
		return storeID, ErrStateMismatch
	}

	// a state is good for one callback only
	consumed, err := s.credentials.ConsumeState(ctx, storeID, params.State)
	if err != nil {
		return storeID, err
	}
	if !consumed {
		return storeID, ErrStateMismatch
	}

	if params.Code == "" {
		return storeID, fmt.Errorf("authorization code: %w", ErrNoServiceResponse)
	}

	token, err := s.oauthClient.ObtainToken(ctx, s.baseURL(creds.UseSandbox), &client.ObtainTokenRequest{
		ClientID:     creds.ApplicationID,
		ClientSecret: creds.ApplicationSecret,
		GrantType:    client.GrantTypeAuthorizationCode,
		Code:         params.Code,
	})
	if err != nil {
		s.logger.Error("obtain access token", zap.Int("store_id", storeID), zap.Error(err))
		return storeID, newProcessorError("obtain token", err)
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return storeID, noResponse("obtain token")
	}

	creds.AccessToken = token.AccessToken
	creds.RefreshToken = token.RefreshToken
	if err := s.credentials.Save(ctx, storeID, creds, FieldAccessToken, FieldRefreshToken); err != nil {
		return storeID, fmt.Errorf("save tokens: %w", err)
	}

	s.logger.Info("access token obtained", zap.Int("store_id", storeID), zap.String("merchant_id", token.MerchantID))
	s.publish(ctx, event.TypeTokenObtained, storeID)
	return storeID, nil
}

func (s *oauthServiceImpl) Renew(ctx context.Context, storeID int) (bool, error) {
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return false, err
	}
	// sandbox tokens are pasted by hand and never expire through OAuth
	if creds.UseSandbox {
		return false, nil
	}
	if creds.AccessToken == "" && creds.RefreshToken == "" {
		// never authorized
		return false, nil
	}
	if creds.ApplicationID == "" || creds.ApplicationSecret == "" {
		return false, ErrNotConfigured
	}
	if creds.RefreshToken == "" {
		return false, ErrMissingCredentials
	}

	token, err := s.oauthClient.ObtainToken(ctx, s.baseURL(false), &client.ObtainTokenRequest{
		ClientID:     creds.ApplicationID,
		ClientSecret: creds.ApplicationSecret,
		GrantType:    client.GrantTypeRefreshToken,
		RefreshToken: creds.RefreshToken,
	})
	if err != nil {
		return false, newProcessorError("renew token", err)
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return false, noResponse("renew token")
	}

	creds.AccessToken = token.AccessToken
	creds.RefreshToken = token.RefreshToken
	if err := s.credentials.Save(ctx, storeID, creds, FieldAccessToken, FieldRefreshToken); err != nil {
		return false, fmt.Errorf("save renewed tokens: %w", err)
	}

	s.publish(ctx, event.TypeTokenRenewed, storeID)
	return true, nil
}

// Revoke invalidates the access token at Square and forgets it locally.
// The refresh token is kept.
func (s *oauthServiceImpl) Revoke(ctx context.Context, storeID int) error {
	creds, err := s.credentials.Load(ctx, storeID)
	if err != nil {
		return err
	}
	if creds.ApplicationID == "" || creds.ApplicationSecret == "" {
		return ErrNotConfigured
	}
	if creds.AccessToken == "" {
		return ErrMissingCredentials
	}

	ok, err := s.oauthClient.RevokeToken(ctx, s.baseURL(creds.UseSandbox), &client.RevokeTokenRequest{
		ClientID:     creds.ApplicationID,
		ClientSecret: creds.ApplicationSecret,
		AccessToken:  creds.AccessToken,
	})
	if err != nil {
		s.logger.Error("revoke access token", zap.Int("store_id", storeID), zap.Error(err))
		return newProcessorError("revoke token", err)
	}
	if !ok {
		return noResponse("revoke token")
	}

	creds.AccessToken = ""
	if err := s.credentials.Save(ctx, storeID, creds, FieldAccessToken); err != nil {
		return fmt.Errorf("clear access token: %w", err)
	}

	s.logger.Info("access token revoked", zap.Int("store_id", storeID))
	s.publish(ctx, event.TypeTokenRevoked, storeID)
	return nil
}

func (s *oauthServiceImpl) publish(ctx context.Context, eventType string, storeID int) {
	if err := s.publisher.Publish(ctx, event.PaymentEvent{Type: eventType, StoreID: storeID}); err != nil {
		s.logger.Warn("publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// ValidateRenewalPeriod checks the token renewal schedule in days.
func ValidateRenewalPeriod(days int) error {
	if days < 1 {
		return ErrInvalidRenewalPeriod
	}
	if days > MaxRenewalPeriodDays {
		return fmt.Errorf("%w: the maximum is %d days, %d days is recommended",
			ErrRenewalPeriodTooLong, MaxRenewalPeriodDays, RecommendedRenewalPeriodDays)
	}
	return nil
}

// IsStateError reports whether err came from a denied or forged callback.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAuthorizationDenied) || errors.Is(err, ErrStateMismatch)
}
