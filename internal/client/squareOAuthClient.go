package client

import (
	"context"
	"net/http"
	"time"

	"square-payment-gateway/internal/model"

	square "github.com/square/square-go-sdk"
)

const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
)

type ObtainTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
	Code         string `json:"code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type RevokeTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"-"`
	AccessToken  string `json:"access_token"`
}

// SquareOAuthClient talks to the OAuth endpoints. The base URL is passed per
// call since sandbox and production stores share one client.
type SquareOAuthClient interface {
	ObtainToken(ctx context.Context, baseURL string, req *ObtainTokenRequest) (*model.SquareToken, error)
	RevokeToken(ctx context.Context, baseURL string, req *RevokeTokenRequest) (bool, error)
}

type squareOAuthClientImpl struct {
	httpClient *http.Client
	apiVersion string
	userAgent  string
}

func NewSquareOAuthClient(timeout time.Duration, apiVersion, userAgent string) SquareOAuthClient {
	return &squareOAuthClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiVersion: apiVersion,
		userAgent:  userAgent,
	}
}

func (c *squareOAuthClientImpl) transport(authorization string) *sdkTransport {
	return &sdkTransport{
		httpClient:    c.httpClient,
		apiVersion:    c.apiVersion,
		userAgent:     c.userAgent,
		authorization: authorization,
	}
}

func (c *squareOAuthClientImpl) ObtainToken(ctx context.Context, baseURL string, req *ObtainTokenRequest) (*model.SquareToken, error) {
	var sdkReq square.ObtainTokenRequest
	if err := convert(req, &sdkReq); err != nil {
		return nil, err
	}

	sdk := newSDKClient(baseURL, "", c.transport(""))
	res, err := sdk.OAuth.ObtainToken(ctx, &sdkReq)
	if err != nil {
		return nil, translateError(err)
	}

	var token model.SquareToken
	if err := decode(res, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeToken authenticates with the application secret rather than a
// bearer token.
func (c *squareOAuthClientImpl) RevokeToken(ctx context.Context, baseURL string, req *RevokeTokenRequest) (bool, error) {
	var sdkReq square.RevokeTokenRequest
	if err := convert(req, &sdkReq); err != nil {
		return false, err
	}

	sdk := newSDKClient(baseURL, "", c.transport("Client "+req.ClientSecret))
	res, err := sdk.OAuth.RevokeToken(ctx, &sdkReq)
	if err != nil {
		return false, translateError(err)
	}

	var out struct {
		Success bool `json:"success"`
	}
	if err := decode(res, &out); err != nil {
		return false, err
	}
	return out.Success, nil
}
