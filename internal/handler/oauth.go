package handler

import (
	"net/http"

	"square-payment-gateway/internal/dto"
	"square-payment-gateway/internal/service"

	"github.com/labstack/echo/v4"
)

type OAuthHandler struct {
	oauthService service.OAuthService
}

func NewOAuthHandler(oauthService service.OAuthService) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
	}
}

// ObtainToken starts the authorization and returns the Square page the
// merchant should be sent to.
func (h *OAuthHandler) ObtainToken(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	url, err := h.oauthService.GenerateAuthorizeURL(ctx, storeID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.AuthorizeURLResponse{URL: url})
}

// Callback is where Square redirects the merchant after authorization.
func (h *OAuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := h.oauthService.HandleCallback(ctx, service.CallbackParams{
		Code:             c.QueryParam("code"),
		State:            c.QueryParam("state"),
		Error:            c.QueryParam("error"),
		ErrorDescription: c.QueryParam("error_description"),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"store_id": storeID,
		"status":   "connected",
	})
}

func (h *OAuthHandler) RevokeToken(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	if err := h.oauthService.Revoke(ctx, storeID); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "revoked",
	})
}
