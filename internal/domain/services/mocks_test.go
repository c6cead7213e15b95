package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/billing"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockProvider struct {
	createCustomerFn func(ctx context.Context, name, email string) (string, error)
	attachFn         func(ctx context.Context, paymentMethodID, customerID string) error
	setDefaultFn     func(ctx context.Context, customerID, paymentMethodID string) error
	updateBillingFn  func(ctx context.Context, customerID string, details billing.BillingDetails) error
	createSubFn      func(ctx context.Context, params billing.CreateSubscriptionParams) (*billing.Subscription, error)
	getSubFn         func(ctx context.Context, subscriptionID string) (*billing.Subscription, error)
	confirmIntentFn  func(ctx context.Context, intentID, paymentMethodID string) (*billing.PaymentIntent, error)
	findPromoFn      func(ctx context.Context, code string) (*billing.PromotionCode, error)
	attachCalls      int
	createSubCalls   []billing.CreateSubscriptionParams
	confirmedIntents []string
}

func (m *mockProvider) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	if m.createCustomerFn != nil {
		return m.createCustomerFn(ctx, name, email)
	}
	return "cus_mock", nil
}

func (m *mockProvider) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	m.attachCalls++
	if m.attachFn != nil {
		return m.attachFn(ctx, paymentMethodID, customerID)
	}
	return nil
}

func (m *mockProvider) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	if m.setDefaultFn != nil {
		return m.setDefaultFn(ctx, customerID, paymentMethodID)
	}
	return nil
}

func (m *mockProvider) UpdateCustomerBilling(ctx context.Context, customerID string, details billing.BillingDetails) error {
	if m.updateBillingFn != nil {
		return m.updateBillingFn(ctx, customerID, details)
	}
	return nil
}

func (m *mockProvider) CreateSubscription(ctx context.Context, params billing.CreateSubscriptionParams) (*billing.Subscription, error) {
	m.createSubCalls = append(m.createSubCalls, params)
	if m.createSubFn != nil {
		return m.createSubFn(ctx, params)
	}
	return &billing.Subscription{ID: "sub_mock", Status: "active"}, nil
}

func (m *mockProvider) GetSubscription(ctx context.Context, subscriptionID string) (*billing.Subscription, error) {
	if m.getSubFn != nil {
		return m.getSubFn(ctx, subscriptionID)
	}
	return &billing.Subscription{ID: subscriptionID, Status: "active"}, nil
}

func (m *mockProvider) ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*billing.PaymentIntent, error) {
	m.confirmedIntents = append(m.confirmedIntents, intentID)
	if m.confirmIntentFn != nil {
		return m.confirmIntentFn(ctx, intentID, paymentMethodID)
	}
	return &billing.PaymentIntent{ID: intentID, Status: billing.IntentSucceeded}, nil
}

func (m *mockProvider) FindPromotionCode(ctx context.Context, code string) (*billing.PromotionCode, error) {
	if m.findPromoFn != nil {
		return m.findPromoFn(ctx, code)
	}
	return nil, nil
}

type mockSubscriptionRepo struct {
	createFn       func(ctx context.Context, sub *models.Subscription) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	listFn         func(ctx context.Context, userID int64) ([]*models.Subscription, error)
	getOccupyingFn func(ctx context.Context, userID, serviceID int64) (*models.Subscription, error)
	updateFn       func(ctx context.Context, sub *models.Subscription) error
	updateStatusFn func(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error
	created        []*models.Subscription
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	m.created = append(m.created, sub)
	if m.createFn != nil {
		return m.createFn(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSubscriptionRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepo) GetOccupyingByUserAndService(ctx context.Context, userID, serviceID int64) (*models.Subscription, error) {
	if m.getOccupyingFn != nil {
		return m.getOccupyingFn(ctx, userID, serviceID)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, sub)
	}
	return nil
}

func (m *mockSubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.SubscriptionStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

type mockUserRepo struct {
	getUserFn    func(ctx context.Context, id int64) (*models.User, error)
	getByEmailFn func(ctx context.Context, email string) (*models.User, error)
	createUserFn func(ctx context.Context, user *models.User) error
	updateUserFn func(ctx context.Context, user *models.User) error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetUserID(ctx context.Context, id int64) (*models.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, repositories.ErrNotFound
}

func (m *mockUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	if m.updateUserFn != nil {
		return m.updateUserFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) SetStripeCustomerID(ctx context.Context, userID int64, customerID string) error {
	return nil
}

type mockServiceRepo struct {
	services map[int64]*models.Service
}

func (m *mockServiceRepo) GetServiceByID(ctx context.Context, id int64) (*models.Service, error) {
	if svc, ok := m.services[id]; ok {
		return svc, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *mockServiceRepo) ListServices(ctx context.Context) ([]*models.Service, error) {
	out := make([]*models.Service, 0, len(m.services))
	for _, svc := range m.services {
		out = append(out, svc)
	}
	return out, nil
}

type mockCouponService struct {
	validateFn func(ctx context.Context, code string) (*models.CouponValidationResult, error)
	calls      []string
}

func (m *mockCouponService) Validate(ctx context.Context, code string) (*models.CouponValidationResult, error) {
	m.calls = append(m.calls, code)
	if m.validateFn != nil {
		return m.validateFn(ctx, code)
	}
	return &models.CouponValidationResult{Valid: true, PromotionCodeID: "promo_" + code}, nil
}

type mockPublisher struct {
	events []models.SubscriptionEvent
}

func (m *mockPublisher) PublishStatus(ctx context.Context, userID int64, event models.SubscriptionEvent) error {
	m.events = append(m.events, event)
	return nil
}

type mockLocker struct {
	acquireFn func(ctx context.Context, userID int64) (bool, error)
	released  []int64
}

func (m *mockLocker) AcquireCheckoutLock(ctx context.Context, userID int64) (bool, error) {
	if m.acquireFn != nil {
		return m.acquireFn(ctx, userID)
	}
	return true, nil
}

func (m *mockLocker) ReleaseCheckoutLock(ctx context.Context, userID int64) error {
	m.released = append(m.released, userID)
	return nil
}

type mockCouponCache struct {
	store map[string][]byte
}

func (m *mockCouponCache) GetCached(ctx context.Context, key string) ([]byte, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store[key], nil
}

func (m *mockCouponCache) SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	m.store[key] = value
	return nil
}

// mockSubscriptionService stands in for the real subscription service in
// checkout and confirmation tests.
type mockSubscriptionService struct {
	createFn     func(ctx context.Context, userID int64, req *CreateSubscriptionRequest) (*SubscriptionResult, error)
	retryFn      func(ctx context.Context, userID int64, localSubscriptionID, paymentMethodID string) (*SubscriptionResult, error)
	verifyFn     func(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error)
	markActiveFn func(ctx context.Context, userID int64, localSubscriptionID string) error
	createCalls  []CreateSubscriptionRequest
	retryCalls   []string
	markedActive []string
	verified     []string
}

func (m *mockSubscriptionService) CreateSubscription(ctx context.Context, userID int64, req *CreateSubscriptionRequest) (*SubscriptionResult, error) {
	m.createCalls = append(m.createCalls, *req)
	if m.createFn != nil {
		return m.createFn(ctx, userID, req)
	}
	return &SubscriptionResult{SubscriptionID: "sub_mock", Status: models.StatusActive, LocalSubscriptionID: uuid.NewString()}, nil
}

func (m *mockSubscriptionService) RetryPayment(ctx context.Context, userID int64, localSubscriptionID, paymentMethodID string) (*SubscriptionResult, error) {
	m.retryCalls = append(m.retryCalls, localSubscriptionID)
	if m.retryFn != nil {
		return m.retryFn(ctx, userID, localSubscriptionID, paymentMethodID)
	}
	return &SubscriptionResult{SubscriptionID: "sub_mock", Status: models.StatusActive, LocalSubscriptionID: localSubscriptionID}, nil
}

func (m *mockSubscriptionService) VerifySubscription(ctx context.Context, userID int64, localSubscriptionID string) (*models.Subscription, error) {
	m.verified = append(m.verified, localSubscriptionID)
	if m.verifyFn != nil {
		return m.verifyFn(ctx, userID, localSubscriptionID)
	}
	id, _ := uuid.Parse(localSubscriptionID)
	return &models.Subscription{ID: id, UserID: userID, Status: models.StatusActive}, nil
}

func (m *mockSubscriptionService) MarkActive(ctx context.Context, userID int64, localSubscriptionID string) error {
	m.markedActive = append(m.markedActive, localSubscriptionID)
	if m.markActiveFn != nil {
		return m.markActiveFn(ctx, userID, localSubscriptionID)
	}
	return nil
}

func (m *mockSubscriptionService) ListSubscriptions(ctx context.Context, userID int64) ([]*models.Subscription, error) {
	return nil, nil
}
