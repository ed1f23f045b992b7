package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SoilDiagnostic holds one lab analysis of a field. Every measurement is optional.
type SoilDiagnostic struct {
	ID                              uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	DiagnosticDate                  time.Time           `gorm:"column:diagnostic_date;type:date;not null"`
	FieldID                         uint64              `gorm:"column:field_id;not null;index"`
	Field                           *Field              `gorm:"foreignKey:FieldID"`
	UserID                          uint64              `gorm:"column:user_id;not null;index"`
	CEC                             decimal.NullDecimal `gorm:"column:cec;type:numeric"`
	EC                              decimal.NullDecimal `gorm:"column:ec;type:numeric"`
	PHH2O                           decimal.NullDecimal `gorm:"column:ph_h2o;type:numeric"`
	PHKCl                           decimal.NullDecimal `gorm:"column:ph_kcl;type:numeric"`
	NH4N                            decimal.NullDecimal `gorm:"column:nh4_n;type:numeric"`
	K2O                             decimal.NullDecimal `gorm:"column:k2o;type:numeric"`
	PhosphorusAbsorptionCoefficient decimal.NullDecimal `gorm:"column:phosphorus_absorption_coefficient;type:numeric"`
	AvailableNitrogen               decimal.NullDecimal `gorm:"column:available_nitrogen;type:numeric"`
	P2O5                            decimal.NullDecimal `gorm:"column:p2o5;type:numeric"`
	CaO                             decimal.NullDecimal `gorm:"column:cao;type:numeric"`
	NO3N                            decimal.NullDecimal `gorm:"column:no3_n;type:numeric"`
	Humus                           decimal.NullDecimal `gorm:"column:humus;type:numeric"`
	MgO                             decimal.NullDecimal `gorm:"column:mgo;type:numeric"`
	CreatedAt                       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (SoilDiagnostic) TableName() string { return "soil_diagnostic" }

func (s *SoilDiagnostic) GetID() uint64             { return s.ID }
func (s *SoilDiagnostic) GetOwnerID() uint64        { return s.UserID }
func (s *SoilDiagnostic) SetOwnerID(ownerID uint64) { s.UserID = ownerID }

func (s *SoilDiagnostic) Assignments() map[string]any {
	out := map[string]any{
		"diagnostic_date": s.DiagnosticDate,
		"field_id":        s.FieldID,
	}
	for column, value := range s.Measurements() {
		out[column] = *value
	}
	return out
}

// Measurements exposes the thirteen soil chemistry values keyed by column name.
func (s *SoilDiagnostic) Measurements() map[string]*decimal.NullDecimal {
	return map[string]*decimal.NullDecimal{
		"cec":                               &s.CEC,
		"ec":                                &s.EC,
		"ph_h2o":                            &s.PHH2O,
		"ph_kcl":                            &s.PHKCl,
		"nh4_n":                             &s.NH4N,
		"k2o":                               &s.K2O,
		"phosphorus_absorption_coefficient": &s.PhosphorusAbsorptionCoefficient,
		"available_nitrogen":                &s.AvailableNitrogen,
		"p2o5":                              &s.P2O5,
		"cao":                               &s.CaO,
		"no3_n":                             &s.NO3N,
		"humus":                             &s.Humus,
		"mgo":                               &s.MgO,
	}
}

// MeasurementColumns is the display order of the soil chemistry columns.
var MeasurementColumns = []string{
	"cec", "ec", "ph_h2o", "ph_kcl", "nh4_n", "k2o", "phosphorus_absorption_coefficient",
	"available_nitrogen", "p2o5", "cao", "no3_n", "humus", "mgo",
}
