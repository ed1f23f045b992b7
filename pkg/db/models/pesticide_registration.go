package models

import "time"

// PesticideRegistration is a row of the national pesticide registry. It is
// shared reference data, not owned by any user.
type PesticideRegistration struct {
	ID                          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RegistrationNumber          string    `gorm:"column:registration_number;type:varchar(255);not null;index"`
	Usage                       string    `gorm:"column:usage;type:varchar(255)"`
	PesticideType               string    `gorm:"column:pesticide_type;type:varchar(255)"`
	PesticideName               string    `gorm:"column:pesticide_name;type:varchar(255)"`
	Abbreviation                string    `gorm:"column:abbreviation;type:varchar(255)"`
	CropName                    string    `gorm:"column:crop_name;type:varchar(255)"`
	ApplicationLocation         string    `gorm:"column:application_location;type:varchar(255)"`
	TargetPestDisease           string    `gorm:"column:target_pest_disease;type:varchar(500)"`
	Purpose                     string    `gorm:"column:purpose;type:varchar(255)"`
	DilutionAmount              string    `gorm:"column:dilution_amount;type:varchar(500)"`
	SprayVolume                 string    `gorm:"column:spray_volume;type:varchar(255)"`
	UsageTime                   string    `gorm:"column:usage_time;type:varchar(255)"`
	MainAgentUsageCount         string    `gorm:"column:main_agent_usage_count;type:varchar(255)"`
	UsageMethod                 string    `gorm:"column:usage_method;type:varchar(255)"`
	FumigationTime              string    `gorm:"column:fumigation_time;type:varchar(255)"`
	FumigationTemperature       string    `gorm:"column:fumigation_temperature;type:varchar(255)"`
	ApplicableSoil              string    `gorm:"column:applicable_soil;type:varchar(255)"`
	ApplicableZoneName          string    `gorm:"column:applicable_zone_name;type:varchar(255)"`
	ApplicablePesticideName     string    `gorm:"column:applicable_pesticide_name;type:varchar(255)"`
	MixtureCount                string    `gorm:"column:mixture_count;type:varchar(255)"`
	ActiveIngredient1TotalUsage string    `gorm:"column:active_ingredient_1_total_usage;type:varchar(255)"`
	ActiveIngredient2TotalUsage string    `gorm:"column:active_ingredient_2_total_usage;type:varchar(255)"`
	ActiveIngredient3TotalUsage string    `gorm:"column:active_ingredient_3_total_usage;type:varchar(255)"`
	ActiveIngredient4TotalUsage string    `gorm:"column:active_ingredient_4_total_usage;type:varchar(255)"`
	ActiveIngredient5TotalUsage string    `gorm:"column:active_ingredient_5_total_usage;type:varchar(255)"`
	CreatedAt                   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PesticideRegistration) TableName() string { return "pesticide_registration" }
