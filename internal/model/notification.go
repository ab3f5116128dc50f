package model

import (
	"time"
)

// Notification scope const
const (
	ScopeUser   = "user"
	ScopeGlobal = "global"
)

// Notification type const
const (
	NotificationTradeCreated     = "trade_created"
	NotificationTradeOffer       = "trade_offer"
	NotificationTradeAccepted    = "trade_accepted"
	NotificationTradeDeclined    = "trade_declined"
	NotificationTradeCancelled   = "trade_cancelled"
	NotificationMeetingProposed  = "meeting_proposed"
	NotificationMeetingConfirmed = "meeting_confirmed"
)

// Notification write-once notification row. UserID is set iff scope is user.
type Notification struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Scope     string    `gorm:"type:varchar(10);not null;index" json:"scope"`
	UserID    *uint64   `gorm:"type:bigint unsigned;index" json:"user_id,omitempty"`
	Type      string    `gorm:"type:varchar(30);not null" json:"type"`
	Message   string    `gorm:"type:varchar(500);not null" json:"message"`
	TradeID   *uint64   `gorm:"type:bigint unsigned;index" json:"trade_id,omitempty"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName set name
func (Notification) TableName() string {
	return "notifications"
}

// IsGlobal check if the notification targets all users
func (n *Notification) IsGlobal() bool {
	return n.Scope == ScopeGlobal
}
