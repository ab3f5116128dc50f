package model

import (
	"time"
)

// Trade status const
const (
	TradeStatusOpen             = "open"
	TradeStatusPendingInitiator = "pending_initiator"
	TradeStatusAccepted         = "accepted"
	TradeStatusDeclined         = "declined"
	TradeStatusCancelled        = "cancelled"
)

// Trade one unit of negotiation between two users over one item pair.
// Responder fields are null until an offer moves the trade to
// pending_initiator; the two always change together.
type Trade struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	InitiatorID        uint64    `gorm:"type:bigint unsigned;not null;index" json:"initiator_id"`
	InitiatorProductID uint64    `gorm:"type:bigint unsigned;not null" json:"initiator_product_id"`
	ResponderID        *uint64   `gorm:"type:bigint unsigned;index" json:"responder_id,omitempty"`
	ResponderProductID *uint64   `gorm:"type:bigint unsigned" json:"responder_product_id,omitempty"`
	Status             string    `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Note               *string   `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt          time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt          time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`

	Initiator *User `gorm:"foreignKey:InitiatorID" json:"initiator,omitempty"`
	Responder *User `gorm:"foreignKey:ResponderID" json:"responder,omitempty"`
}

// TableName set name
func (Trade) TableName() string {
	return "trades"
}

// IsParticipant check if the user is the initiator or the responder
func (t *Trade) IsParticipant(userID uint64) bool {
	if t.InitiatorID == userID {
		return true
	}
	return t.ResponderID != nil && *t.ResponderID == userID
}

// IsResolved check if the trade reached an outcome that blocks cancellation
func (t *Trade) IsResolved() bool {
	return t.Status == TradeStatusAccepted || t.Status == TradeStatusDeclined
}

// OtherParticipant the participant opposite to userID, false when the trade
// has no responder yet or userID is not a participant
func (t *Trade) OtherParticipant(userID uint64) (uint64, bool) {
	if t.ResponderID == nil {
		return 0, false
	}
	switch userID {
	case t.InitiatorID:
		return *t.ResponderID, true
	case *t.ResponderID:
		return t.InitiatorID, true
	}
	return 0, false
}

// TradeMessage append-only chat message on an accepted trade
type TradeMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeID   uint64    `gorm:"type:bigint unsigned;not null;index" json:"trade_id"`
	SenderID  uint64    `gorm:"type:bigint unsigned;not null;index" json:"sender_id"`
	Message   string    `gorm:"type:varchar(1000);not null" json:"message"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}

// TableName set name
func (TradeMessage) TableName() string {
	return "trade_messages"
}

// Meeting proposal status const
const (
	ProposalStatusProposed = "proposed"
	ProposalStatusAccepted = "accepted"
	ProposalStatusDeclined = "declined"
)

// TradeMeetingProposal suggested meeting time for a trade; each proposal is
// resolved independently.
type TradeMeetingProposal struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeID     uint64     `gorm:"type:bigint unsigned;not null;index" json:"trade_id"`
	ProposerID  uint64     `gorm:"type:bigint unsigned;not null" json:"proposer_id"`
	ProposedAt  time.Time  `gorm:"type:timestamp;not null" json:"proposed_at"`
	Status      string     `gorm:"type:varchar(20);not null;default:'proposed';index" json:"status"`
	RespondedBy *uint64    `gorm:"type:bigint unsigned" json:"responded_by,omitempty"`
	RespondedAt *time.Time `gorm:"type:timestamp" json:"responded_at,omitempty"`
	CreatedAt   time.Time  `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`

	Proposer *User `gorm:"foreignKey:ProposerID" json:"proposer,omitempty"`
}

// TableName set name
func (TradeMeetingProposal) TableName() string {
	return "trade_meeting_proposals"
}

// IsPending check if the proposal is still awaiting a response
func (p *TradeMeetingProposal) IsPending() bool {
	return p.Status == ProposalStatusProposed
}
