package models

import (
	"time"
)

// Customer represents a shop customer who owns service tickets
type Customer struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Email     string          `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string          `gorm:"not null" json:"phone"`
	Tickets   []ServiceTicket `gorm:"foreignKey:CustomerID" json:"tickets,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
