package models

import (
	"time"
)

// ServiceTicket represents one vehicle-service work order. A ticket belongs to
// exactly one customer, carries a set of assigned mechanics (many-to-many) and
// the serialized parts installed on the vehicle. The (VIN, service_date) pair
// is unique across tickets.
type ServiceTicket struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	ServiceDate string           `gorm:"size:10;not null;index:idx_vin_date,unique" json:"service_date"` // YYYY-MM-DD
	VIN         string           `gorm:"size:17;not null;index:idx_vin_date,unique" json:"vin"`
	ServiceDesc string           `gorm:"size:500;not null" json:"service_desc"`
	CustomerID  uint             `gorm:"not null;index" json:"customer_id"`
	Customer    *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Mechanics   []Mechanic       `gorm:"many2many:service_mechanics" json:"mechanics,omitempty"`
	Parts       []SerializedPart `gorm:"foreignKey:TicketID" json:"parts,omitempty"`
	PhotoS3Key  *string          `json:"photo_s3_key,omitempty"`
	PhotoURL    *string          `gorm:"-" json:"photo_url,omitempty"` // computed, presigned URL for the vehicle photo
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the ServiceTicket model
func (ServiceTicket) TableName() string {
	return "service_tickets"
}
