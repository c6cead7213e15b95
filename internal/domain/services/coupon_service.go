package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"time"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/billing"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/models"
)

var couponCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

const couponCacheTTL = 5 * time.Minute

// ValidateCouponFormat checks the code shape before it is ever sent to the
// processor.
func ValidateCouponFormat(code string) error {
	if !couponCodePattern.MatchString(code) {
		return apperrors.New(apperrors.KindValidation, "invalid coupon code format")
	}
	return nil
}

// CouponCache is the small slice of the cache the coupon service needs.
type CouponCache interface {
	GetCached(ctx context.Context, key string) ([]byte, error)
	SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type CouponService interface {
	Validate(ctx context.Context, code string) (*models.CouponValidationResult, error)
}

type couponService struct {
	provider billing.Provider
	cache    CouponCache
	logger   *slog.Logger
}

func NewCouponService(provider billing.Provider, cache CouponCache, logger *slog.Logger) CouponService {
	return &couponService{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

func (s *couponService) Validate(ctx context.Context, code string) (*models.CouponValidationResult, error) {
	if err := ValidateCouponFormat(code); err != nil {
		return nil, err
	}

	cacheKey := "coupon:" + code
	if s.cache != nil {
		if data, err := s.cache.GetCached(ctx, cacheKey); err == nil && data != nil {
			var cached models.CouponValidationResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	pc, err := s.provider.FindPromotionCode(ctx, code)
	if err != nil {
		return nil, err
	}

	result := &models.CouponValidationResult{}
	if pc != nil && pc.Active {
		result.Valid = true
		result.PercentOff = pc.PercentOff
		result.AmountOff = pc.AmountOff
		result.Currency = pc.Currency
		result.PromotionCodeID = pc.ID
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.SetCached(ctx, cacheKey, data, couponCacheTTL); err != nil {
				s.logger.Warn("failed to cache coupon validation", "code", code, "error", err)
			}
		}
	}

	return result, nil
}
