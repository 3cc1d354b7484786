package handler

import (
	"net/http"
	"slices"

	"square-payment-gateway/internal/dto"
	"square-payment-gateway/internal/model"
	"square-payment-gateway/internal/service"

	"github.com/labstack/echo/v4"
)

// fieldNames maps the request field names onto stored setting fields.
var fieldNames = map[string]service.Field{
	"application_id":            service.FieldApplicationID,
	"application_secret":        service.FieldApplicationSecret,
	"use_sandbox":               service.FieldUseSandbox,
	"access_token":              service.FieldAccessToken,
	"location_id":               service.FieldLocationID,
	"transaction_mode":          service.FieldTransactionMode,
	"additional_fee":            service.FieldAdditionalFee,
	"additional_fee_percentage": service.FieldAdditionalFeePercentage,
	"use_3ds":                   service.FieldUse3DS,
}

type ConfigurationHandler struct {
	credentials    service.CredentialStore
	squareService  service.SquareService
	renewalService service.RenewalService
}

func NewConfigurationHandler(
	credentials service.CredentialStore,
	squareService service.SquareService,
	renewalService service.RenewalService,
) *ConfigurationHandler {
	return &ConfigurationHandler{
		credentials:    credentials,
		squareService:  squareService,
		renewalService: renewalService,
	}
}

func (h *ConfigurationHandler) GetConfiguration(c echo.Context) error {
	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}
	return h.respondConfiguration(c, storeID)
}

func (h *ConfigurationHandler) UpdateConfiguration(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.ConfigurationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	creds, err := h.credentials.Load(ctx, storeID)
	if err != nil {
		return err
	}

	fields, err := applyConfiguration(creds, &req)
	if err != nil {
		return err
	}

	if len(fields) > 0 {
		if err := h.credentials.Save(ctx, storeID, creds, fields...); err != nil {
			return err
		}
	}

	if len(req.Inherit) > 0 && storeID != service.GlobalStore {
		inherit := make([]service.Field, 0, len(req.Inherit))
		for _, name := range req.Inherit {
			field, ok := fieldNames[name]
			if !ok {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown field "+name)
			}
			inherit = append(inherit, field)
		}
		if err := h.credentials.Inherit(ctx, storeID, inherit...); err != nil {
			return err
		}
	}

	return h.respondConfiguration(c, storeID)
}

// ResetConfiguration drops every setting of the store. The global store is
// re-seeded with the install defaults.
func (h *ConfigurationHandler) ResetConfiguration(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	if err := h.credentials.Clear(ctx, storeID); err != nil {
		return err
	}
	if storeID == service.GlobalStore {
		if err := h.credentials.Install(ctx); err != nil {
			return err
		}
	}

	return h.respondConfiguration(c, storeID)
}

func (h *ConfigurationHandler) respondConfiguration(c echo.Context, storeID int) error {
	ctx := c.Request().Context()

	creds, err := h.credentials.Load(ctx, storeID)
	if err != nil {
		return err
	}

	var overrides []string
	if storeID != service.GlobalStore {
		fields, err := h.credentials.Overrides(ctx, storeID)
		if err != nil {
			return err
		}
		for name, field := range fieldNames {
			if slices.Contains(fields, field) {
				overrides = append(overrides, name)
			}
		}
		slices.Sort(overrides)
	}

	return c.JSON(http.StatusOK, dto.NewConfigurationResponse(storeID, creds, overrides))
}

func applyConfiguration(creds *model.MerchantCredentials, req *dto.ConfigurationRequest) ([]service.Field, error) {
	var fields []service.Field

	if req.ApplicationID != nil {
		creds.ApplicationID = *req.ApplicationID
		fields = append(fields, service.FieldApplicationID)
	}
	if req.ApplicationSecret != nil {
		creds.ApplicationSecret = *req.ApplicationSecret
		fields = append(fields, service.FieldApplicationSecret)
	}
	if req.UseSandbox != nil {
		creds.UseSandbox = *req.UseSandbox
		fields = append(fields, service.FieldUseSandbox)
	}
	if req.AccessToken != nil {
		// pasted tokens are only accepted for sandbox accounts; production
		// tokens come from the OAuth flow
		if !creds.UseSandbox {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "access token can only be set for sandbox accounts")
		}
		creds.AccessToken = *req.AccessToken
		fields = append(fields, service.FieldAccessToken)
	}
	if req.LocationID != nil {
		creds.LocationID = *req.LocationID
		if creds.LocationID == "" {
			creds.LocationID = model.NoLocation
		}
		fields = append(fields, service.FieldLocationID)
	}
	if req.TransactionMode != nil {
		mode, err := dto.ParseTransactionMode(*req.TransactionMode)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		creds.TransactionMode = mode
		fields = append(fields, service.FieldTransactionMode)
	}
	if req.AdditionalFee != nil {
		if req.AdditionalFee.IsNegative() {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "additional_fee must not be negative")
		}
		creds.AdditionalFee = *req.AdditionalFee
		fields = append(fields, service.FieldAdditionalFee)
	}
	if req.AdditionalFeePercentage != nil {
		creds.AdditionalFeePercentage = *req.AdditionalFeePercentage
		fields = append(fields, service.FieldAdditionalFeePercentage)
	}
	if req.Use3DS != nil {
		creds.Use3DS = *req.Use3DS
		fields = append(fields, service.FieldUse3DS)
	}

	return fields, nil
}

// ListLocations returns the active locations the merchant can pick from.
func (h *ConfigurationHandler) ListLocations(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	locations, err := h.squareService.ListActiveLocations(ctx, storeID)
	if err != nil {
		return toHTTPError(err)
	}

	resp := make([]dto.LocationResponse, 0, len(locations))
	for i := range locations {
		resp = append(resp, dto.LocationResponse{
			ID:   locations[i].ID,
			Name: locations[i].DisplayName(),
		})
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *ConfigurationHandler) GetRenewalPeriod(c echo.Context) error {
	days, err := h.renewalService.Period(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.RenewalPeriodRequest{Days: days})
}

func (h *ConfigurationHandler) UpdateRenewalPeriod(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RenewalPeriodRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.renewalService.SetPeriod(ctx, req.Days); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, req)
}
