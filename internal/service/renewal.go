package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"square-payment-gateway/internal/lock"
	"square-payment-gateway/internal/model"
	"square-payment-gateway/internal/repository"

	"go.uber.org/zap"
)

const (
	settingRenewalPeriod  = "squarepaymentsettings.renewalperiod"
	settingLastRenewalRun = "squarepaymentsettings.lastrenewal"
)

type RenewalReport struct {
	Renewed []int `json:"renewed"`
	Skipped []int `json:"skipped"`
	Failed  []int `json:"failed"`
}

// RenewalService refreshes the access tokens of every store on a schedule.
type RenewalService interface {
	RenewAll(ctx context.Context) (*RenewalReport, error)
	// RunDue renews when the period has elapsed since the last run.
	RunDue(ctx context.Context) (bool, error)
	Period(ctx context.Context) (int, error)
	SetPeriod(ctx context.Context, days int) error
	Start(ctx context.Context, checkInterval time.Duration)
}

type renewalServiceImpl struct {
	oauth         OAuthService
	credentials   CredentialStore
	settingRepo   repository.SettingRepository
	locker        lock.Locker
	defaultPeriod int
	logger        *zap.Logger
	now           func() time.Time
}

func NewRenewalService(
	oauth OAuthService,
	credentials CredentialStore,
	settingRepo repository.SettingRepository,
	locker lock.Locker,
	defaultPeriod int,
	logger *zap.Logger,
) RenewalService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &renewalServiceImpl{
		oauth:         oauth,
		credentials:   credentials,
		settingRepo:   settingRepo,
		locker:        locker,
		defaultPeriod: defaultPeriod,
		logger:        logger.Named("renewal"),
		now:           time.Now,
	}
}

// RenewAll renews every store holding its own refresh token. Stores that
// inherit tokens are covered by the global store. Per-store failures are
// logged and reported, never returned.
func (s *renewalServiceImpl) RenewAll(ctx context.Context) (*RenewalReport, error) {
	storeIDs, err := s.credentials.StoreIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &RenewalReport{}
	for _, storeID := range storeIDs {
		if storeID != GlobalStore {
			owns, err := s.ownsRefreshToken(ctx, storeID)
			if err != nil {
				s.logger.Error("check store overrides", zap.Int("store_id", storeID), zap.Error(err))
				report.Failed = append(report.Failed, storeID)
				continue
			}
			if !owns {
				continue
			}
		}

		renewed, err := s.renewStore(ctx, storeID)
		switch {
		case err != nil:
			s.logger.Error("renew access token", zap.Int("store_id", storeID), zap.Error(err))
			report.Failed = append(report.Failed, storeID)
		case renewed:
			s.logger.Info("access token renewed", zap.Int("store_id", storeID))
			report.Renewed = append(report.Renewed, storeID)
		default:
			report.Skipped = append(report.Skipped, storeID)
		}
	}
	return report, nil
}

func (s *renewalServiceImpl) ownsRefreshToken(ctx context.Context, storeID int) (bool, error) {
	fields, err := s.credentials.Overrides(ctx, storeID)
	if err != nil {
		return false, err
	}
	for _, f := range fields {
		if f == FieldRefreshToken {
			return true, nil
		}
	}
	return false, nil
}

// renewStore reports false when the store was skipped, either because its
// renewal is already running elsewhere or because it needs none.
func (s *renewalServiceImpl) renewStore(ctx context.Context, storeID int) (bool, error) {
	unlock, ok, err := s.locker.TryLock(ctx, "renew:"+strconv.Itoa(storeID))
	if err != nil {
		return false, err
	}
	if !ok {
		s.logger.Info("renewal already in progress", zap.Int("store_id", storeID))
		return false, nil
	}
	defer unlock()

	return s.oauth.Renew(ctx, storeID)
}

func (s *renewalServiceImpl) RunDue(ctx context.Context) (bool, error) {
	period, err := s.Period(ctx)
	if err != nil {
		return false, err
	}
	last, err := s.lastRun(ctx)
	if err != nil {
		return false, err
	}
	now := s.now().UTC()
	if !last.IsZero() && now.Before(last.Add(time.Duration(period)*24*time.Hour)) {
		return false, nil
	}

	report, err := s.RenewAll(ctx)
	if err != nil {
		return false, err
	}
	if err := s.settingRepo.Upsert(ctx, []model.StoreSetting{{
		Name:    settingLastRenewalRun,
		StoreID: GlobalStore,
		Value:   now.Format(time.RFC3339),
	}}); err != nil {
		return true, fmt.Errorf("save last renewal run: %w", err)
	}

	s.logger.Info("renewal run finished",
		zap.Ints("renewed", report.Renewed),
		zap.Ints("skipped", report.Skipped),
		zap.Ints("failed", report.Failed))
	return true, nil
}

// Period is the stored renewal period, or the configured default. Either
// one must pass ValidateRenewalPeriod.
func (s *renewalServiceImpl) Period(ctx context.Context) (int, error) {
	value, err := s.globalSetting(ctx, settingRenewalPeriod)
	if err != nil {
		return 0, err
	}
	days := s.defaultPeriod
	if value != "" {
		if days, err = strconv.Atoi(value); err != nil {
			return 0, fmt.Errorf("parse renewal period %q: %w", value, err)
		}
	}
	if err := ValidateRenewalPeriod(days); err != nil {
		return 0, fmt.Errorf("renewal period: %w", err)
	}
	return days, nil
}

func (s *renewalServiceImpl) SetPeriod(ctx context.Context, days int) error {
	if err := ValidateRenewalPeriod(days); err != nil {
		return err
	}
	return s.settingRepo.Upsert(ctx, []model.StoreSetting{{
		Name:    settingRenewalPeriod,
		StoreID: GlobalStore,
		Value:   strconv.Itoa(days),
	}})
}

// Start checks for a due renewal every checkInterval until ctx is done.
func (s *renewalServiceImpl) Start(ctx context.Context, checkInterval time.Duration) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("renewal run", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *renewalServiceImpl) lastRun(ctx context.Context) (time.Time, error) {
	value, err := s.globalSetting(ctx, settingLastRenewalRun)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last renewal run %q: %w", value, err)
	}
	return t, nil
}

func (s *renewalServiceImpl) globalSetting(ctx context.Context, name string) (string, error) {
	settings, err := s.settingRepo.List(ctx, GlobalStore)
	if err != nil {
		return "", fmt.Errorf("list global settings: %w", err)
	}
	for _, setting := range settings {
		if setting.Name == name {
			return setting.Value, nil
		}
	}
	return "", nil
}
