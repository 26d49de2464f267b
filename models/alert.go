package models

import "time"

// Alert is a persisted notice for the dietitians of an organization.
type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrgID     uint      `gorm:"index" json:"orgId"`
	ClientID  uint      `gorm:"index" json:"clientId"`
	MealLogID uint      `json:"mealLogId"`
	Type      string    `gorm:"size:32" json:"type"` // "compliance_red" | "info"
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
