package handler

import (
	"context"
	"net/http"
	"strconv"

	"square-payment-gateway/internal/dto"
	"square-payment-gateway/internal/model"
	"square-payment-gateway/internal/repository"
	"square-payment-gateway/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	customerRepo   repository.CustomerRepository
}

func NewPaymentHandler(paymentService service.PaymentService, customerRepo repository.CustomerRepository) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		customerRepo:   customerRepo,
	}
}

func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	return h.process(c, false)
}

func (h *PaymentHandler) ProcessRecurringPayment(c echo.Context) error {
	return h.process(c, true)
}

func (h *PaymentHandler) process(c echo.Context, recurring bool) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	var form dto.PaymentInfoForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	intent, err := form.ToIntent(storeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var result *model.PaymentResult
	if recurring {
		result, err = h.paymentService.ProcessRecurringPayment(ctx, intent)
	} else {
		result, err = h.paymentService.ProcessPayment(ctx, intent, false)
	}
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) Capture(c echo.Context) error {
	return h.transaction(c, h.paymentService.Capture)
}

func (h *PaymentHandler) Void(c echo.Context) error {
	return h.transaction(c, h.paymentService.Void)
}

type transactionOp func(ctx context.Context, storeID int, transactionID string) (*model.PaymentResult, error)

func (h *PaymentHandler) transaction(c echo.Context, op transactionOp) error {
	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.TransactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.TransactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id is required")
	}

	result, err := op(c.Request().Context(), storeID, req.TransactionID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.TransactionID == "" || !req.AmountToRefund.IsPositive() {
		return echo.NewHTTPError(http.StatusBadRequest, "transaction_id and a positive amount_to_refund are required")
	}

	result, err := h.paymentService.Refund(ctx, &model.RefundRequest{
		StoreID:          storeID,
		TransactionID:    req.TransactionID,
		AmountToRefund:   req.AmountToRefund,
		CapturedTotal:    req.CapturedTotal,
		RequireCompleted: req.RequireCompleted,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) AdditionalFee(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	var req dto.FeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	fee, err := h.paymentService.AdditionalFee(ctx, storeID, req.Subtotal)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.FeeResponse{Fee: fee})
}

func (h *PaymentHandler) ListStoredCards(c echo.Context) error {
	ctx := c.Request().Context()

	storeID, err := storeIDFromHeader(c)
	if err != nil {
		return err
	}

	customerID, err := customerIDParam(c)
	if err != nil {
		return err
	}

	cards, err := h.paymentService.ListStoredCards(ctx, storeID, customerID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.NewStoredCards(cards))
}

// SyncCustomer stores the platform's current view of a customer.
func (h *PaymentHandler) SyncCustomer(c echo.Context) error {
	ctx := c.Request().Context()

	customerID, err := customerIDParam(c)
	if err != nil {
		return err
	}

	var req dto.CustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.customerRepo.Save(ctx, req.ToModel(customerID)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"id": customerID,
	})
}

func customerIDParam(c echo.Context) (int64, error) {
	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || customerID <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	return customerID, nil
}
