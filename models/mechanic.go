package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Mechanic represents a shop mechanic. Mechanics authenticate with email and
// password and hold the admin role for ticket-mutating operations.
type Mechanic struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Email        string          `gorm:"uniqueIndex;not null" json:"email"`
	Salary       float64         `gorm:"not null" json:"salary"`
	PasswordHash string          `gorm:"not null" json:"-"`
	Tickets      []ServiceTicket `gorm:"many2many:service_mechanics" json:"tickets,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Mechanic model
func (Mechanic) TableName() string {
	return "mechanics"
}

// SetPassword hashes the plaintext password with bcrypt and stores the hash.
// The plaintext is never persisted.
func (m *Mechanic) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares a plaintext password against the stored hash
func (m *Mechanic) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(plaintext)) == nil
}
