package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"square-payment-gateway/internal/cache"
	"square-payment-gateway/internal/model"
	"square-payment-gateway/internal/repository"

	"github.com/shopspring/decimal"
)

// GlobalStore holds the defaults every store falls back to.
const GlobalStore = 0

// Field names a persisted credential setting.
type Field string

const (
	FieldApplicationID              Field = "squarepaymentsettings.applicationid"
	FieldApplicationSecret          Field = "squarepaymentsettings.applicationsecret"
	FieldAccessToken                Field = "squarepaymentsettings.accesstoken"
	FieldRefreshToken               Field = "squarepaymentsettings.refreshtoken"
	FieldUseSandbox                 Field = "squarepaymentsettings.usesandbox"
	FieldVerificationState          Field = "squarepaymentsettings.accesstokenverificationstring"
	FieldVerificationStateCreatedAt Field = "squarepaymentsettings.accesstokenverificationcreatedat"
	FieldLocationID                 Field = "squarepaymentsettings.locationid"
	FieldTransactionMode            Field = "squarepaymentsettings.transactionmode"
	FieldAdditionalFee              Field = "squarepaymentsettings.additionalfee"
	FieldAdditionalFeePercentage    Field = "squarepaymentsettings.additionalfeepercentage"
	FieldUse3DS                     Field = "squarepaymentsettings.use3ds"
)

var AllFields = []Field{
	FieldApplicationID,
	FieldApplicationSecret,
	FieldAccessToken,
	FieldRefreshToken,
	FieldUseSandbox,
	FieldVerificationState,
	FieldVerificationStateCreatedAt,
	FieldLocationID,
	FieldTransactionMode,
	FieldAdditionalFee,
	FieldAdditionalFeePercentage,
	FieldUse3DS,
}

type CredentialStore interface {
	Load(ctx context.Context, storeID int) (*model.MerchantCredentials, error)
	// Save writes the listed fields of creds for the store, or every field
	// when none is listed.
	Save(ctx context.Context, storeID int, creds *model.MerchantCredentials, fields ...Field) error
	Clear(ctx context.Context, storeID int) error
	Inherit(ctx context.Context, storeID int, fields ...Field) error
	Overrides(ctx context.Context, storeID int) ([]Field, error)
	Install(ctx context.Context) error
	FindStoreByState(ctx context.Context, state string) (int, error)
	// ConsumeState clears the store's verification state if it still equals
	// state. Only one caller can consume a given state.
	ConsumeState(ctx context.Context, storeID int, state string) (bool, error)
	StoreIDs(ctx context.Context) ([]int, error)
}

type credentialStoreImpl struct {
	settingRepo repository.SettingRepository
	cache       cache.CredentialsCache
}

func NewCredentialStore(settingRepo repository.SettingRepository, credentialsCache cache.CredentialsCache) CredentialStore {
	if credentialsCache == nil {
		credentialsCache = cache.NewNopCache()
	}
	return &credentialStoreImpl{
		settingRepo: settingRepo,
		cache:       credentialsCache,
	}
}

func (s *credentialStoreImpl) Load(ctx context.Context, storeID int) (*model.MerchantCredentials, error) {
	if creds, ok := s.cache.Get(ctx, storeID); ok {
		return creds, nil
	}

	storeIDs := []int{GlobalStore}
	if storeID != GlobalStore {
		storeIDs = append(storeIDs, storeID)
	}
	// ordered by store id, so overrides are applied after the defaults
	settings, err := s.settingRepo.List(ctx, storeIDs...)
	if err != nil {
		return nil, fmt.Errorf("list settings for store %d: %w", storeID, err)
	}

	creds := model.DefaultMerchantCredentials()
	for _, setting := range settings {
		if err := decodeField(&creds, Field(setting.Name), setting.Value); err != nil {
			return nil, fmt.Errorf("store %d: %w", setting.StoreID, err)
		}
	}

	s.cache.Set(ctx, storeID, &creds)
	return &creds, nil
}

func (s *credentialStoreImpl) Save(ctx context.Context, storeID int, creds *model.MerchantCredentials, fields ...Field) error {
	if len(fields) == 0 {
		fields = AllFields
	}

	settings := make([]model.StoreSetting, 0, len(fields))
	for _, field := range fields {
		value, err := encodeField(creds, field)
		if err != nil {
			return err
		}
		settings = append(settings, model.StoreSetting{
			Name:    string(field),
			StoreID: storeID,
			Value:   value,
		})
	}

	if err := s.settingRepo.Upsert(ctx, settings); err != nil {
		return fmt.Errorf("save settings for store %d: %w", storeID, err)
	}
	s.invalidate(ctx, storeID)
	return nil
}

func (s *credentialStoreImpl) Clear(ctx context.Context, storeID int) error {
	if err := s.settingRepo.Delete(ctx, storeID); err != nil {
		return fmt.Errorf("clear settings for store %d: %w", storeID, err)
	}
	s.invalidate(ctx, storeID)
	return nil
}

// Inherit drops the store's overrides for the fields so they fall back to
// the global defaults.
func (s *credentialStoreImpl) Inherit(ctx context.Context, storeID int, fields ...Field) error {
	if storeID == GlobalStore || len(fields) == 0 {
		return nil
	}

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	if err := s.settingRepo.Delete(ctx, storeID, names...); err != nil {
		return fmt.Errorf("delete overrides for store %d: %w", storeID, err)
	}
	s.invalidate(ctx, storeID)
	return nil
}

func (s *credentialStoreImpl) Overrides(ctx context.Context, storeID int) ([]Field, error) {
	if storeID == GlobalStore {
		return nil, nil
	}
	settings, err := s.settingRepo.List(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list settings for store %d: %w", storeID, err)
	}

	fields := make([]Field, 0, len(settings))
	for _, setting := range settings {
		fields = append(fields, Field(setting.Name))
	}
	return fields, nil
}

// Install seeds the global defaults that are not stored yet.
func (s *credentialStoreImpl) Install(ctx context.Context) error {
	existing, err := s.settingRepo.List(ctx, GlobalStore)
	if err != nil {
		return fmt.Errorf("list global settings: %w", err)
	}
	present := make(map[Field]bool, len(existing))
	for _, setting := range existing {
		present[Field(setting.Name)] = true
	}

	var missing []Field
	for _, field := range []Field{FieldLocationID, FieldTransactionMode, FieldUseSandbox} {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	defaults := model.DefaultMerchantCredentials()
	return s.Save(ctx, GlobalStore, &defaults, missing...)
}

func (s *credentialStoreImpl) FindStoreByState(ctx context.Context, state string) (int, error) {
	return s.settingRepo.FindStoreByValue(ctx, string(FieldVerificationState), state)
}

func (s *credentialStoreImpl) ConsumeState(ctx context.Context, storeID int, state string) (bool, error) {
	consumed, err := s.settingRepo.CompareAndSwap(ctx, storeID, string(FieldVerificationState), state, "")
	if err != nil {
		return false, fmt.Errorf("consume state for store %d: %w", storeID, err)
	}
	if !consumed {
		return false, nil
	}
	s.invalidate(ctx, storeID)

	cleared := []model.StoreSetting{{Name: string(FieldVerificationStateCreatedAt), StoreID: storeID}}
	if err := s.settingRepo.Upsert(ctx, cleared); err != nil {
		return true, fmt.Errorf("clear state timestamp for store %d: %w", storeID, err)
	}
	return true, nil
}

func (s *credentialStoreImpl) StoreIDs(ctx context.Context) ([]int, error) {
	ids, err := s.settingRepo.ListStoreIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list store ids: %w", err)
	}
	return ids, nil
}

func (s *credentialStoreImpl) invalidate(ctx context.Context, storeID int) {
	if storeID == GlobalStore {
		s.cache.InvalidateAll(ctx)
		return
	}
	s.cache.Invalidate(ctx, storeID)
}

func encodeField(c *model.MerchantCredentials, field Field) (string, error) {
	switch field {
	case FieldApplicationID:
		return c.ApplicationID, nil
	case FieldApplicationSecret:
		return c.ApplicationSecret, nil
	case FieldAccessToken:
		return c.AccessToken, nil
	case FieldRefreshToken:
		return c.RefreshToken, nil
	case FieldUseSandbox:
		return strconv.FormatBool(c.UseSandbox), nil
	case FieldVerificationState:
		return c.VerificationState, nil
	case FieldVerificationStateCreatedAt:
		if c.VerificationStateCreatedAt == nil {
			return "", nil
		}
		return c.VerificationStateCreatedAt.UTC().Format(time.RFC3339), nil
	case FieldLocationID:
		return c.LocationID, nil
	case FieldTransactionMode:
		return strconv.Itoa(int(c.TransactionMode)), nil
	case FieldAdditionalFee:
		return c.AdditionalFee.String(), nil
	case FieldAdditionalFeePercentage:
		return strconv.FormatBool(c.AdditionalFeePercentage), nil
	case FieldUse3DS:
		return strconv.FormatBool(c.Use3DS), nil
	}
	return "", fmt.Errorf("unknown setting %q", field)
}

// decodeField ignores settings it does not know so foreign rows in the
// table never break loading.
func decodeField(c *model.MerchantCredentials, field Field, value string) error {
	var err error
	switch field {
	case FieldApplicationID:
		c.ApplicationID = value
	case FieldApplicationSecret:
		c.ApplicationSecret = value
	case FieldAccessToken:
		c.AccessToken = value
	case FieldRefreshToken:
		c.RefreshToken = value
	case FieldUseSandbox:
		c.UseSandbox, err = parseBool(value)
	case FieldVerificationState:
		c.VerificationState = value
	case FieldVerificationStateCreatedAt:
		if value == "" {
			c.VerificationStateCreatedAt = nil
			return nil
		}
		var t time.Time
		t, err = time.Parse(time.RFC3339, value)
		c.VerificationStateCreatedAt = &t
	case FieldLocationID:
		c.LocationID = value
	case FieldTransactionMode:
		var mode int
		mode, err = strconv.Atoi(value)
		c.TransactionMode = model.TransactionMode(mode)
	case FieldAdditionalFee:
		if value == "" {
			c.AdditionalFee = decimal.Zero
			return nil
		}
		c.AdditionalFee, err = decimal.NewFromString(value)
	case FieldAdditionalFeePercentage:
		c.AdditionalFeePercentage, err = parseBool(value)
	case FieldUse3DS:
		c.Use3DS, err = parseBool(value)
	}
	if err != nil {
		return fmt.Errorf("parse setting %s=%q: %w", field, value, err)
	}
	return nil
}

func parseBool(value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}
