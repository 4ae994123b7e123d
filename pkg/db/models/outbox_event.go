package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/pkg/enums"
)

// OutboxEvent is a pending domain event written in the same transaction as
// the state change it describes. A background publisher drains unpublished
// rows to Pub/Sub.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AggregateType enums.OutboxAggregateType `gorm:"type:text;not null" json:"aggregate_type"`
	AggregateID   uuid.UUID                 `gorm:"type:uuid;not null" json:"aggregate_id"`
	EventType     enums.OutboxEventType     `gorm:"type:text;not null" json:"event_type"`
	Payload       json.RawMessage           `gorm:"type:jsonb;not null" json:"payload"`
	PublishedAt   *time.Time                `gorm:"index:idx_outbox_unpublished,where:published_at IS NULL" json:"published_at,omitempty"`
	Attempts      int                       `gorm:"not null;default:0" json:"attempts"`
	LastError     string                    `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt     time.Time                 `gorm:"not null;default:now()" json:"created_at"`
}

// TableName overrides the default GORM table name.
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
