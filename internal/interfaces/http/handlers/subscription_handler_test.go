package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/services"
	"github.com/rzv1310/seo-doctor-sub000/internal/interfaces/http/middleware"
)

type stubSubscriptionService struct {
	createFn func(ctx context.Context, userID int64, req *services.CreateSubscriptionRequest) (*services.SubscriptionResult, error)
	retryFn  func(ctx context.Context, userID int64, localSubscriptionID, paymentMethodID string) (*services.SubscriptionResult, error)
	verifyFn func(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error)
	listFn   func(ctx context.Context, userID int64) ([]*models.Subscription, error)
}

func (s *stubSubscriptionService) CreateSubscription(ctx context.Context, userID int64, req *services.CreateSubscriptionRequest) (*services.SubscriptionResult, error) {
	return s.createFn(ctx, userID, req)
}

func (s *stubSubscriptionService) RetryPayment(ctx context.Context, userID int64, localSubscriptionID, paymentMethodID string) (*services.SubscriptionResult, error) {
	return s.retryFn(ctx, userID, localSubscriptionID, paymentMethodID)
}

func (s *stubSubscriptionService) VerifySubscription(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error) {
	return s.verifyFn(ctx, userID, localSubscriptionID)
}

func (s *stubSubscriptionService) MarkActive(ctx context.Context, userID int64, localSubscriptionID string) error {
	return nil
}

func (s *stubSubscriptionService) ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	return s.listFn(ctx, userID)
}

type stubCheckoutService struct {
	checkoutFn func(ctx context.Context, userID int64, req *services.CheckoutRequest) (*services.CheckoutResult, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, userID int64, req *services.CheckoutRequest) (*services.CheckoutResult, error) {
	return s.checkoutFn(ctx, userID, req)
}

type stubConfirmationService struct {
	confirmFn func(ctx context.Context, userID int64, pending []services.PendingConfirmation) ([]*models.Subscription, error)
}

func (s *stubConfirmationService) ConfirmPending(ctx context.Context, userID int64, pending []services.PendingConfirmation) ([]*models.Subscription, error) {
	return s.confirmFn(ctx, userID, pending)
}

type stubCouponService struct {
	validateFn func(ctx context.Context, code string) (*models.CouponValidationResult, error)
}

func (s *stubCouponService) Validate(ctx context.Context, code string) (*models.CouponValidationResult, error) {
	return s.validateFn(ctx, code)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func performJSON(t *testing.T, handler gin.HandlerFunc, userID int64, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		c.Set(middleware.ContextUserID, userID)
	}

	handler(c)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateStripeSubscription_OK(t *testing.T) {
	subs := &stubSubscriptionService{
		createFn: func(ctx context.Context, userID int64, req *services.CreateSubscriptionRequest) (*services.SubscriptionResult, error) {
			assert.Equal(t, int64(42), userID)
			assert.Equal(t, int64(7), req.ServiceID)
			assert.Equal(t, "pm_123", req.PaymentMethodID)
			assert.Equal(t, "SAVE10", req.Coupon)
			return &services.SubscriptionResult{
				SubscriptionID:      "sub_abc",
				Status:              models.StatusActive,
				LocalSubscriptionID: uuid.NewString(),
			}, nil
		},
	}
	h := NewSubscriptionHandler(subs, nil, nil, nil, testLogger())

	w := performJSON(t, h.CreateStripeSubscription, 42, gin.H{
		"serviceId":       7,
		"paymentMethodId": "pm_123",
		"coupon":          "SAVE10",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "sub_abc", body["subscriptionId"])
	assert.Equal(t, "active", body["status"])
}

func TestCreateStripeSubscription_Unauthorized(t *testing.T) {
	h := NewSubscriptionHandler(&stubSubscriptionService{}, nil, nil, nil, testLogger())

	w := performJSON(t, h.CreateStripeSubscription, 0, gin.H{"serviceId": 7})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateStripeSubscription_DuplicateIsBadRequest(t *testing.T) {
	subs := &stubSubscriptionService{
		createFn: func(ctx context.Context, userID int64, req *services.CreateSubscriptionRequest) (*services.SubscriptionResult, error) {
			return nil, apperrors.New(apperrors.KindDuplicate, "an active subscription for GMB MAX already exists")
		},
	}
	h := NewSubscriptionHandler(subs, nil, nil, nil, testLogger())

	w := performJSON(t, h.CreateStripeSubscription, 42, gin.H{"serviceId": 7, "paymentMethodId": "pm_123"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "an active subscription for GMB MAX already exists", body["error"])
	assert.Equal(t, false, body["retryable"])
}

func TestCreateStripeSubscription_UpstreamIsRetryable(t *testing.T) {
	subs := &stubSubscriptionService{
		createFn: func(ctx context.Context, userID int64, req *services.CreateSubscriptionRequest) (*services.SubscriptionResult, error) {
			return nil, apperrors.New(apperrors.KindUpstream, "processor unavailable")
		},
	}
	h := NewSubscriptionHandler(subs, nil, nil, nil, testLogger())

	w := performJSON(t, h.CreateStripeSubscription, 42, gin.H{"serviceId": 7})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["retryable"])
}

func TestCheckout_ReturnsPartialResultsOnFailure(t *testing.T) {
	checkout := &stubCheckoutService{
		checkoutFn: func(ctx context.Context, userID int64, req *services.CheckoutRequest) (*services.CheckoutResult, error) {
			return &services.CheckoutResult{
					Outcome: models.CheckoutComplete,
					Items: []models.CheckoutItemResult{
						{ServiceID: 7, ServiceName: "GMB MAX", Status: models.StatusActive},
					},
				}, &services.ItemError{
					ServiceName: "GOOGLE ORGANIC",
					Err:         apperrors.New(apperrors.KindPaymentDeclined, "Your card was declined."),
				}
		},
	}
	h := NewSubscriptionHandler(&stubSubscriptionService{}, checkout, nil, nil, testLogger())

	w := performJSON(t, h.Checkout, 42, gin.H{
		"items":           []gin.H{{"serviceId": 7, "name": "GMB MAX"}, {"serviceId": 8, "name": "GOOGLE ORGANIC"}},
		"paymentMethodId": "pm_123",
	})

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "GOOGLE ORGANIC")
	assert.Equal(t, false, body["retryable"])

	items, ok := body["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "GMB MAX", first["serviceName"])
}

func TestCheckout_OK(t *testing.T) {
	checkout := &stubCheckoutService{
		checkoutFn: func(ctx context.Context, userID int64, req *services.CheckoutRequest) (*services.CheckoutResult, error) {
			require.Len(t, req.Items, 1)
			return &services.CheckoutResult{
				Outcome: models.CheckoutRequiresAction,
				Items: []models.CheckoutItemResult{
					{ServiceID: 7, ServiceName: "GMB MAX", RequiresAction: true, ClientSecret: "pi_1_secret_x", Status: models.StatusPendingPayment},
				},
			}, nil
		},
	}
	h := NewSubscriptionHandler(&stubSubscriptionService{}, checkout, nil, nil, testLogger())

	w := performJSON(t, h.Checkout, 42, gin.H{
		"items":           []gin.H{{"serviceId": 7, "name": "GMB MAX"}},
		"paymentMethodId": "pm_123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "requires_action", body["outcome"])
}

func TestConfirmPayments_OK(t *testing.T) {
	localID := uuid.New()
	confirmations := &stubConfirmationService{
		confirmFn: func(ctx context.Context, userID int64, pending []services.PendingConfirmation) ([]*models.Subscription, error) {
			require.Len(t, pending, 1)
			assert.Equal(t, localID.String(), pending[0].LocalSubscriptionID)
			return []*models.Subscription{{ID: localID, UserID: userID, Status: models.StatusActive}}, nil
		},
	}
	h := NewSubscriptionHandler(&stubSubscriptionService{}, nil, confirmations, nil, testLogger())

	w := performJSON(t, h.ConfirmPayments, 42, gin.H{
		"pending": []gin.H{{
			"local_subscription_id": localID.String(),
			"client_secret":         "pi_1_secret_x",
			"service_name":          "GMB MAX",
		}},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body, "subscriptions")
}

func TestVerify_NotFound(t *testing.T) {
	subs := &stubSubscriptionService{
		verifyFn: func(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error) {
			return nil, apperrors.New(apperrors.KindNotFound, "subscription not found")
		},
	}
	h := NewSubscriptionHandler(subs, nil, nil, nil, testLogger())

	w := performJSON(t, h.Verify, 42, gin.H{"localSubscriptionId": uuid.NewString()})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateCoupon_OK(t *testing.T) {
	coupons := &stubCouponService{
		validateFn: func(ctx context.Context, code string) (*models.CouponValidationResult, error) {
			assert.Equal(t, "SAVE10", code)
			return &models.CouponValidationResult{Valid: true, PercentOff: 10}, nil
		},
	}
	h := NewSubscriptionHandler(&stubSubscriptionService{}, nil, nil, coupons, testLogger())

	w := performJSON(t, h.ValidateCoupon, 0, gin.H{"coupon": "SAVE10"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["valid"])
}

func TestValidateCoupon_MissingBody(t *testing.T) {
	h := NewSubscriptionHandler(&stubSubscriptionService{}, nil, nil, &stubCouponService{}, testLogger())

	w := performJSON(t, h.ValidateCoupon, 0, gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
