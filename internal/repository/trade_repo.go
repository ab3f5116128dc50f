package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// TradeRepository trade repository interface. Transitions away from open and
// pending_initiator are conditional writes: the UPDATE carries the expected
// prior state and reports whether it matched, so racing requests cannot both
// win.
type TradeRepository interface {
	// Create trade
	Create(ctx context.Context, trade *model.Trade) error

	// Get trade by ID
	GetByID(ctx context.Context, id uint64) (*model.Trade, error)

	// List trades where the user is a participant
	ListForUser(ctx context.Context, userID uint64) ([]*model.Trade, error)

	// List open trades initiated by other users
	ListOpenForOthers(ctx context.Context, userID uint64) ([]*model.Trade, error)

	// List all trades (admin)
	ListAll(ctx context.Context) ([]*model.Trade, error)

	// Offer: conditional transition open -> pending_initiator; returns false
	// when the trade was no longer open with no responder
	Offer(ctx context.Context, tradeID, responderID, responderProductID uint64, note *string) (bool, error)

	// UpdateStatusFrom: conditional transition from one of the expected
	// statuses to the target; returns false when no row matched
	UpdateStatusFrom(ctx context.Context, tradeID uint64, expected []string, target string) (bool, error)

	// Count trades
	Count(ctx context.Context) (int64, error)
}

// tradeRepository trade repository implementation
type tradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a trade repository
func NewTradeRepository(db *gorm.DB) TradeRepository {
	return &tradeRepository{db: db}
}

// Create creates a trade
func (r *tradeRepository) Create(ctx context.Context, trade *model.Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// GetByID gets a trade by ID
func (r *tradeRepository) GetByID(ctx context.Context, id uint64) (*model.Trade, error) {
	var trade model.Trade
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Preload("Responder").
		Where("id = ?", id).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("trade not found")
		}
		return nil, utils.Storage(err)
	}
	return &trade, nil
}

// ListForUser lists trades where the user is initiator or responder
func (r *tradeRepository) ListForUser(ctx context.Context, userID uint64) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Preload("Responder").
		Where("initiator_id = ? OR responder_id = ?", userID, userID).
		Order("updated_at DESC, created_at DESC").
		Find(&trades).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return trades, nil
}

// ListOpenForOthers lists open trades without a responder from other users
func (r *tradeRepository) ListOpenForOthers(ctx context.Context, userID uint64) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Where("status = ? AND responder_id IS NULL AND initiator_id != ?", model.TradeStatusOpen, userID).
		Order("created_at DESC").
		Find(&trades).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return trades, nil
}

// ListAll lists all trades, newest activity first
func (r *tradeRepository) ListAll(ctx context.Context) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := r.db.WithContext(ctx).
		Preload("Initiator").
		Preload("Responder").
		Order("updated_at DESC, created_at DESC").
		Find(&trades).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return trades, nil
}

// Offer sets the responder and moves the trade to pending_initiator, but only
// while it is still open with no responder. RowsAffected zero means another
// offer won the race.
func (r *tradeRepository) Offer(ctx context.Context, tradeID, responderID, responderProductID uint64, note *string) (bool, error) {
	updates := map[string]interface{}{
		"responder_id":         responderID,
		"responder_product_id": responderProductID,
		"status":               model.TradeStatusPendingInitiator,
	}
	if note != nil {
		updates["note"] = *note
	}

	result := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Where("id = ? AND status = ? AND responder_id IS NULL", tradeID, model.TradeStatusOpen).
		Updates(updates)
	if result.Error != nil {
		return false, utils.Storage(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatusFrom transitions the trade status only when the current status
// is one of the expected values
func (r *tradeRepository) UpdateStatusFrom(ctx context.Context, tradeID uint64, expected []string, target string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Trade{}).
		Where("id = ? AND status IN ?", tradeID, expected).
		Update("status", target)
	if result.Error != nil {
		return false, utils.Storage(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Count counts trades
func (r *tradeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Trade{}).Count(&total).Error; err != nil {
		return 0, utils.Storage(err)
	}
	return total, nil
}
