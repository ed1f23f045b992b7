package models

import "time"

// Crop is a variety grown by a user, optionally supplied by a company.
type Crop struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string     `gorm:"column:name;type:varchar(255);not null"`
	IntroducedDate   *time.Time `gorm:"column:introduced_date;type:date"`
	DiscontinuedDate *time.Time `gorm:"column:discontinued_date;type:date"`
	CompanyID        *uint64    `gorm:"column:company_id;index"`
	Company          *Company   `gorm:"foreignKey:CompanyID"`
	UserID           uint64     `gorm:"column:user_id;not null;index"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Crop) TableName() string { return "crop" }

func (c *Crop) GetID() uint64             { return c.ID }
func (c *Crop) GetOwnerID() uint64        { return c.UserID }
func (c *Crop) SetOwnerID(ownerID uint64) { c.UserID = ownerID }

func (c *Crop) Assignments() map[string]any {
	return map[string]any{
		"name":              c.Name,
		"introduced_date":   c.IntroducedDate,
		"discontinued_date": c.DiscontinuedDate,
		"company_id":        c.CompanyID,
	}
}
