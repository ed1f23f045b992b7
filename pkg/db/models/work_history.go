package models

import "time"

// WorkHistory records a block of work done on a field for a crop.
// StartTime and EndTime are wall-clock "HH:MM" values.
type WorkHistory struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Date      time.Time `gorm:"column:date;type:date;not null"`
	StartTime string    `gorm:"column:start_time;type:time;not null"`
	EndTime   string    `gorm:"column:end_time;type:time;not null"`
	FieldID   uint64    `gorm:"column:field_id;not null;index"`
	Field     *Field    `gorm:"foreignKey:FieldID"`
	CropID    uint64    `gorm:"column:crop_id;not null;index"`
	Crop      *Crop     `gorm:"foreignKey:CropID"`
	Content   string    `gorm:"column:content;type:varchar(1000);not null"`
	UserID    uint64    `gorm:"column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (WorkHistory) TableName() string { return "work_history" }

func (w *WorkHistory) GetID() uint64             { return w.ID }
func (w *WorkHistory) GetOwnerID() uint64        { return w.UserID }
func (w *WorkHistory) SetOwnerID(ownerID uint64) { w.UserID = ownerID }

func (w *WorkHistory) Assignments() map[string]any {
	return map[string]any{
		"date":       w.Date,
		"start_time": w.StartTime,
		"end_time":   w.EndTime,
		"field_id":   w.FieldID,
		"crop_id":    w.CropID,
		"content":    w.Content,
	}
}
