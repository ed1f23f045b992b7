package models

import "time"

// Field is a plot of land bounded by a north-east / south-west rectangle.
type Field struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name               string    `gorm:"column:name;type:varchar(255);not null"`
	NorthEastLatitude  float64   `gorm:"column:north_east_latitude;not null"`
	NorthEastLongitude float64   `gorm:"column:north_east_longitude;not null"`
	SouthWestLatitude  float64   `gorm:"column:south_west_latitude;not null"`
	SouthWestLongitude float64   `gorm:"column:south_west_longitude;not null"`
	UserID             uint64    `gorm:"column:user_id;not null;index"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Field) TableName() string { return "field" }

func (f *Field) GetID() uint64             { return f.ID }
func (f *Field) GetOwnerID() uint64        { return f.UserID }
func (f *Field) SetOwnerID(ownerID uint64) { f.UserID = ownerID }

func (f *Field) Assignments() map[string]any {
	return map[string]any{
		"name":                 f.Name,
		"north_east_latitude":  f.NorthEastLatitude,
		"north_east_longitude": f.NorthEastLongitude,
		"south_west_latitude":  f.SouthWestLatitude,
		"south_west_longitude": f.SouthWestLongitude,
	}
}
