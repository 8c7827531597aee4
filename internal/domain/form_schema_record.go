package domain

import (
	"time"

	"gorm.io/datatypes"
)

// FormSchemaRecord is the durable slot holding one event's schema document
type FormSchemaRecord struct {
	Key       string         `gorm:"type:varchar(255);primaryKey" json:"key"`
	EventID   string         `gorm:"type:varchar(255);not null;index:idx_form_schemas_event_id" json:"event_id"`
	Document  datatypes.JSON `gorm:"type:jsonb;not null" json:"document"`
	Version   int            `gorm:"type:int;not null;default:1" json:"version"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for FormSchemaRecord
func (FormSchemaRecord) TableName() string {
	return "form_schemas"
}
