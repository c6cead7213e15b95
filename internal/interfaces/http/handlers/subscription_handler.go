package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/services"
	"github.com/rzv1310/seo-doctor-sub000/internal/interfaces/http/middleware"
)

type SubscriptionHandler struct {
	subs          services.SubscriptionService
	checkout      services.CheckoutService
	confirmations services.ConfirmationService
	coupons       services.CouponService
	logger        *slog.Logger
}

func NewSubscriptionHandler(
	subs services.SubscriptionService,
	checkout services.CheckoutService,
	confirmations services.ConfirmationService,
	coupons services.CouponService,
	logger *slog.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subs:          subs,
		checkout:      checkout,
		confirmations: confirmations,
		coupons:       coupons,
		logger:        logger,
	}
}

type createSubscriptionBody struct {
	ServiceID       int64  `json:"serviceId" binding:"required"`
	PaymentMethodID string `json:"paymentMethodId"`
	Coupon          string `json:"coupon"`
}

// CreateStripeSubscription handles POST /api/subscriptions/create-stripe-subscription.
func (h *SubscriptionHandler) CreateStripeSubscription(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	var body createSubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.subs.CreateSubscription(c.Request.Context(), userID, &services.CreateSubscriptionRequest{
		ServiceID:       body.ServiceID,
		PaymentMethodID: body.PaymentMethodID,
		Coupon:          body.Coupon,
	})
	if err != nil {
		h.logError("failed to create subscription", err, "user_id", userID, "service_id", body.ServiceID)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type retryPaymentBody struct {
	LocalSubscriptionID string `json:"localSubscriptionId" binding:"required"`
	PaymentMethodID     string `json:"paymentMethodId"`
}

func (h *SubscriptionHandler) RetryPayment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	var body retryPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.subs.RetryPayment(c.Request.Context(), userID, body.LocalSubscriptionID, body.PaymentMethodID)
	if err != nil {
		h.logError("failed to retry payment", err, "user_id", userID, "subscription_id", body.LocalSubscriptionID)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type checkoutBody struct {
	Items           []models.CartItem `json:"items" binding:"required"`
	PaymentMethodID string            `json:"paymentMethodId"`
	Coupon          string            `json:"coupon"`
}

func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	var body checkoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), userID, &services.CheckoutRequest{
		Items:           body.Items,
		PaymentMethodID: body.PaymentMethodID,
		Coupon:          body.Coupon,
	})
	if err != nil {
		h.logError("checkout failed", err, "user_id", userID)
		// A mid-batch failure still reports the items that went through, so
		// the client does not treat already-created subscriptions as failed.
		response := gin.H{
			"error":     err.Error(),
			"retryable": apperrors.Retryable(err),
		}
		if result != nil {
			response["outcome"] = result.Outcome
			response["items"] = result.Items
		}
		c.JSON(apperrors.HTTPStatus(err), response)
		return
	}

	c.JSON(http.StatusOK, result)
}

type confirmPaymentsBody struct {
	Pending []services.PendingConfirmation `json:"pending" binding:"required"`
}

func (h *SubscriptionHandler) ConfirmPayments(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	var body confirmPaymentsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	verified, err := h.confirmations.ConfirmPending(c.Request.Context(), userID, body.Pending)
	if err != nil {
		h.logError("payment confirmation failed", err, "user_id", userID)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": verified})
}

type verifyBody struct {
	LocalSubscriptionID string `json:"localSubscriptionId" binding:"required"`
}

func (h *SubscriptionHandler) Verify(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	var body verifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	sub, err := h.subs.VerifySubscription(c.Request.Context(), userID, body.LocalSubscriptionID)
	if err != nil {
		h.logError("subscription verification failed", err, "user_id", userID, "subscription_id", body.LocalSubscriptionID)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	subs, err := h.subs.ListSubscriptions(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

type validateCouponBody struct {
	Coupon string `json:"coupon" binding:"required"`
}

func (h *SubscriptionHandler) ValidateCoupon(c *gin.Context) {
	var body validateCouponBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	result, err := h.coupons.Validate(c.Request.Context(), body.Coupon)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SubscriptionHandler) respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{
		"error":     err.Error(),
		"retryable": apperrors.Retryable(err),
	})
}

func (h *SubscriptionHandler) logError(msg string, err error, args ...interface{}) {
	if h.logger == nil {
		return
	}
	var itemErr *services.ItemError
	if errors.As(err, &itemErr) {
		args = append(args, "service_name", itemErr.ServiceName)
	}
	allArgs := append([]interface{}{"error", err}, args...)
	h.logger.Error(msg, allArgs...)
}
