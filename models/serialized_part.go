package models

import (
	"time"
)

// SerializedPart is one physical unit of a PartDescription. TicketID is a
// single-owner slot: nil means the unit is on-hand stock, non-nil means it is
// installed on that service ticket.
type SerializedPart struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	DescID      uint             `gorm:"not null;index" json:"desc_id"`
	Description *PartDescription `gorm:"foreignKey:DescID" json:"description,omitempty"`
	TicketID    *uint            `gorm:"index" json:"ticket_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the SerializedPart model
func (SerializedPart) TableName() string {
	return "serialized_parts"
}
