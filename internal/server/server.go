package server

import (
	"context"
	"net/http"

	"square-payment-gateway/internal/handler"
	authmw "square-payment-gateway/internal/middleware"
	"square-payment-gateway/internal/repository"
	"square-payment-gateway/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Services struct {
	Credentials  service.CredentialStore
	OAuth        service.OAuthService
	Square       service.SquareService
	Payment      service.PaymentService
	Renewal      service.RenewalService
	CustomerRepo repository.CustomerRepository
}

type Server struct {
	echo                 *echo.Echo
	jwtSecret            string
	oauthHandler         *handler.OAuthHandler
	configurationHandler *handler.ConfigurationHandler
	paymentHandler       *handler.PaymentHandler
}

func NewServer(services Services, jwtSecret string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(requestLogger(logger.Named("http")))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:                 e,
		jwtSecret:            jwtSecret,
		oauthHandler:         handler.NewOAuthHandler(services.OAuth),
		configurationHandler: handler.NewConfigurationHandler(services.Credentials, services.Square, services.Renewal),
		paymentHandler:       handler.NewPaymentHandler(services.Payment, services.CustomerRepo),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- square oauth redirect --------
	api.GET("/square/oauth/callback", s.oauthHandler.Callback)

	// -------- merchant configuration --------
	admin := api.Group("/admin", authmw.JWTAuth(s.jwtSecret, authmw.RoleAdmin))
	admin.GET("/configuration", s.configurationHandler.GetConfiguration)
	admin.PUT("/configuration", s.configurationHandler.UpdateConfiguration)
	admin.DELETE("/configuration", s.configurationHandler.ResetConfiguration)
	admin.POST("/oauth/obtain", s.oauthHandler.ObtainToken)
	admin.POST("/oauth/revoke", s.oauthHandler.RevokeToken)
	admin.GET("/locations", s.configurationHandler.ListLocations)
	admin.GET("/renewal-period", s.configurationHandler.GetRenewalPeriod)
	admin.PUT("/renewal-period", s.configurationHandler.UpdateRenewalPeriod)

	// -------- platform payments --------
	payments := api.Group("/payments", authmw.JWTAuth(s.jwtSecret, authmw.RoleAdmin, authmw.RolePlatform))
	payments.POST("/process", s.paymentHandler.ProcessPayment)
	payments.POST("/process-recurring", s.paymentHandler.ProcessRecurringPayment)
	payments.POST("/capture", s.paymentHandler.Capture)
	payments.POST("/void", s.paymentHandler.Void)
	payments.POST("/refund", s.paymentHandler.Refund)
	payments.POST("/fee", s.paymentHandler.AdditionalFee)
	payments.GET("/customers/:id/cards", s.paymentHandler.ListStoredCards)
	payments.PUT("/customers/:id", s.paymentHandler.SyncCustomer)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger logs one line per request. Authenticated requests carry the
// token's subject and role.
func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if claims := authmw.ClaimsFrom(c); claims != nil {
				fields = append(fields, zap.String("subject", claims.Subject), zap.String("role", claims.Role))
			}
			if v.Error != nil {
				log.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
