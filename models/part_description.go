package models

import (
	"time"
)

// PartDescription is a catalog entry for a kind of part. Physical units are
// tracked individually as SerializedParts under the description.
type PartDescription struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	PartName        string           `gorm:"not null" json:"part_name"`
	Brand           string           `gorm:"not null" json:"brand"`
	Price           float64          `gorm:"not null" json:"price"`
	SerializedParts []SerializedPart `gorm:"foreignKey:DescID" json:"serialized_parts,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TableName specifies the table name for the PartDescription model
func (PartDescription) TableName() string {
	return "part_descriptions"
}
