package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cardmarket/internal/model"
	"cardmarket/pkg/utils"
)

// TradeMessageRepository trade chat message repository interface
type TradeMessageRepository interface {
	// Add message
	Add(ctx context.Context, message *model.TradeMessage) error

	// List messages for a set of trades, oldest first
	ListForTradeIDs(ctx context.Context, tradeIDs []uint64) ([]*model.TradeMessage, error)
}

// tradeMessageRepository trade message repository implementation
type tradeMessageRepository struct {
	db *gorm.DB
}

// NewTradeMessageRepository creates a trade message repository
func NewTradeMessageRepository(db *gorm.DB) TradeMessageRepository {
	return &tradeMessageRepository{db: db}
}

// Add appends a message
func (r *tradeMessageRepository) Add(ctx context.Context, message *model.TradeMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// ListForTradeIDs lists messages for the given trades in chronological order
func (r *tradeMessageRepository) ListForTradeIDs(ctx context.Context, tradeIDs []uint64) ([]*model.TradeMessage, error) {
	if len(tradeIDs) == 0 {
		return []*model.TradeMessage{}, nil
	}
	var messages []*model.TradeMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("trade_id IN ?", tradeIDs).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return messages, nil
}

// MeetingRepository trade meeting proposal repository interface
type MeetingRepository interface {
	// Propose meeting
	Propose(ctx context.Context, proposal *model.TradeMeetingProposal) error

	// Get proposal by ID
	GetByID(ctx context.Context, id uint64) (*model.TradeMeetingProposal, error)

	// List proposals for a set of trades, oldest first
	ListForTradeIDs(ctx context.Context, tradeIDs []uint64) ([]*model.TradeMeetingProposal, error)

	// Respond: conditional resolution of a still-proposed proposal; returns
	// false when the proposal was already resolved
	Respond(ctx context.Context, proposalID, responderID uint64, status string) (bool, error)
}

// meetingRepository meeting proposal repository implementation
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a meeting proposal repository
func NewMeetingRepository(db *gorm.DB) MeetingRepository {
	return &meetingRepository{db: db}
}

// Propose creates a proposal with status proposed
func (r *meetingRepository) Propose(ctx context.Context, proposal *model.TradeMeetingProposal) error {
	proposal.Status = model.ProposalStatusProposed
	if err := r.db.WithContext(ctx).Create(proposal).Error; err != nil {
		return utils.Storage(err)
	}
	return nil
}

// GetByID gets a proposal by ID
func (r *meetingRepository) GetByID(ctx context.Context, id uint64) (*model.TradeMeetingProposal, error) {
	var proposal model.TradeMeetingProposal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&proposal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFoundf("meeting proposal not found")
		}
		return nil, utils.Storage(err)
	}
	return &proposal, nil
}

// ListForTradeIDs lists proposals for the given trades in chronological order
func (r *meetingRepository) ListForTradeIDs(ctx context.Context, tradeIDs []uint64) ([]*model.TradeMeetingProposal, error) {
	if len(tradeIDs) == 0 {
		return []*model.TradeMeetingProposal{}, nil
	}
	var proposals []*model.TradeMeetingProposal
	err := r.db.WithContext(ctx).
		Preload("Proposer").
		Where("trade_id IN ?", tradeIDs).
		Order("created_at ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, utils.Storage(err)
	}
	return proposals, nil
}

// Respond resolves a proposal only while its status is still proposed
func (r *meetingRepository) Respond(ctx context.Context, proposalID, responderID uint64, status string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.TradeMeetingProposal{}).
		Where("id = ? AND status = ?", proposalID, model.ProposalStatusProposed).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_by": responderID,
			"responded_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, utils.Storage(result.Error)
	}
	return result.RowsAffected > 0, nil
}
