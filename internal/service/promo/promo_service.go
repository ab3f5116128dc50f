package promo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/shopspring/decimal"

	"cardmarket/internal/model"
	"cardmarket/internal/repository"
	"cardmarket/pkg/log"
	"cardmarket/pkg/utils"
)

// PromoService resolves promo codes against a subtotal. A nil result with a
// nil error means "no promo": the code is absent, inactive, expired or the
// subtotal does not qualify. Errors are reserved for storage failures so
// callers can tell "code invalid" from "system unavailable".
type PromoService interface {
	// Validate a code against a subtotal
	Validate(ctx context.Context, code string, subtotal float64) (*model.AppliedPromo, error)

	// Warm the code filter from storage
	WarmFilter(ctx context.Context) error

	// Create stores a new code and registers it in the filter
	Create(ctx context.Context, promo *model.PromoCode) (*model.PromoCode, error)

	// Register a newly created code in the filter
	AddCode(code string)
}

// promoService promo service implementation
type promoService struct {
	promoRepo repository.PromoRepository
	filter    *bloom.BloomFilter
	mu        sync.RWMutex
	warmed    bool
}

// NewPromoService creates a promo service
func NewPromoService(promoRepo repository.PromoRepository, filterCapacity uint, falsePositive float64) PromoService {
	return &promoService{
		promoRepo: promoRepo,
		filter:    bloom.NewWithEstimates(filterCapacity, falsePositive),
	}
}

// Validate resolves a code to a concrete discount amount. The bloom filter
// short-circuits codes that are definitely absent; everything else hits
// storage for the authoritative row.
func (s *promoService) Validate(ctx context.Context, code string, subtotal float64) (*model.AppliedPromo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	s.mu.RLock()
	if s.warmed && !s.filter.TestString(code) {
		s.mu.RUnlock()
		return nil, nil
	}
	s.mu.RUnlock()

	promo, err := s.promoRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !promo.Active {
		return nil, nil
	}
	if promo.IsExpired(time.Now()) {
		return nil, nil
	}
	if subtotal < promo.MinSubtotalValue() {
		return nil, nil
	}

	sub := decimal.NewFromFloat(subtotal)
	value := decimal.NewFromFloat(promo.DiscountValue)

	var discount decimal.Decimal
	if promo.DiscountType == model.DiscountTypePercent {
		discount = sub.Mul(value).Div(decimal.NewFromInt(100))
	} else {
		discount = value
	}

	if promo.MaxDiscount != nil {
		max := decimal.NewFromFloat(*promo.MaxDiscount)
		if discount.GreaterThan(max) {
			discount = max
		}
	}
	if discount.GreaterThan(sub) {
		discount = sub
	}

	return &model.AppliedPromo{
		Code:   promo.Code,
		Amount: discount.Round(2).InexactFloat64(),
	}, nil
}

// WarmFilter loads every known code into the bloom filter. Until it has run
// the filter is bypassed, so a cold start never rejects a real code.
func (s *promoService) WarmFilter(ctx context.Context) error {
	codes, err := s.promoRepo.ListCodes(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, code := range codes {
		s.filter.AddString(strings.ToUpper(code))
	}
	s.warmed = true

	log.WithFields(map[string]interface{}{
		"codes": len(codes),
	}).Info("Promo code filter warmed")
	return nil
}

// Create validates and stores a new code. The filter registration keeps
// warmed validation from short-circuiting a code it never saw.
func (s *promoService) Create(ctx context.Context, promo *model.PromoCode) (*model.PromoCode, error) {
	promo.Code = strings.ToUpper(strings.TrimSpace(promo.Code))
	if promo.Code == "" {
		return nil, utils.Validationf("promo code is required")
	}
	if promo.DiscountType != model.DiscountTypePercent && promo.DiscountType != model.DiscountTypeFixed {
		return nil, utils.Validationf("discount type must be percent or fixed")
	}
	if promo.DiscountValue <= 0 {
		return nil, utils.Validationf("discount value must be positive")
	}
	if promo.DiscountType == model.DiscountTypePercent && promo.DiscountValue > 100 {
		return nil, utils.Validationf("percent discount cannot exceed 100")
	}
	if promo.MaxDiscount != nil && *promo.MaxDiscount < 0 {
		return nil, utils.Validationf("max discount cannot be negative")
	}
	if promo.MinSubtotal != nil && *promo.MinSubtotal < 0 {
		return nil, utils.Validationf("min subtotal cannot be negative")
	}

	if err := s.promoRepo.Create(ctx, promo); err != nil {
		return nil, err
	}
	s.AddCode(promo.Code)

	log.WithFields(map[string]interface{}{
		"code": promo.Code,
		"type": promo.DiscountType,
	}).Info("Promo code created")
	return promo, nil
}

// AddCode registers a code in the filter
func (s *promoService) AddCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.AddString(strings.ToUpper(strings.TrimSpace(code)))
}
