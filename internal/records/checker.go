package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	msgRequired      = "入力してください"
	msgInvalidDate   = "日付はYYYY-MM-DD形式で入力してください"
	msgInvalidClock  = "時刻はHH:MM形式で入力してください"
	msgInvalidNumber = "数値を入力してください"
	msgInvalidChoice = "選択肢から選んでください"
	msgFormInvalid   = "入力内容に誤りがあります"
)

// Checker converts submitted form strings into typed values, collecting a
// message per offending field instead of stopping at the first problem.
type Checker struct {
	errs pkgerrors.FieldErrors
}

func NewChecker() *Checker {
	return &Checker{errs: pkgerrors.FieldErrors{}}
}

// Add records msg for field unless the field already has a message.
func (c *Checker) Add(field, msg string) {
	if _, exists := c.errs[field]; !exists {
		c.errs[field] = msg
	}
}

func (c *Checker) Has(field string) bool {
	_, ok := c.errs[field]
	return ok
}

// Text trims value and enforces presence and a maximum rune length.
func (c *Checker) Text(field, value string, required bool, max int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			c.Add(field, msgRequired)
		}
		return ""
	}
	if max > 0 && len([]rune(value)) > max {
		c.Add(field, fmt.Sprintf("%d文字以内で入力してください", max))
	}
	return value
}

// Date parses a YYYY-MM-DD value. An empty optional value yields nil.
func (c *Checker) Date(field, value string, required bool) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			c.Add(field, msgRequired)
		}
		return nil
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		c.Add(field, msgInvalidDate)
		return nil
	}
	return &parsed
}

// Clock parses an HH:MM value and returns it normalized along with minutes past midnight.
func (c *Checker) Clock(field, value string) (string, int) {
	value = strings.TrimSpace(value)
	if value == "" {
		c.Add(field, msgRequired)
		return "", -1
	}
	if len(value) > len(ClockLayout) {
		// browsers may submit HH:MM:SS
		value = value[:len(ClockLayout)]
	}
	parsed, err := time.Parse(ClockLayout, value)
	if err != nil {
		c.Add(field, msgInvalidClock)
		return "", -1
	}
	return parsed.Format(ClockLayout), parsed.Hour()*60 + parsed.Minute()
}

// ID parses a positive identifier. An empty optional value yields nil.
func (c *Checker) ID(field, value string, required bool) *uint64 {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			c.Add(field, msgRequired)
		}
		return nil
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		c.Add(field, msgInvalidChoice)
		return nil
	}
	return &id
}

// Float parses a required number within [min, max].
func (c *Checker) Float(field, value string, min, max float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		c.Add(field, msgRequired)
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		c.Add(field, msgInvalidNumber)
		return 0
	}
	if f < min || f > max {
		c.Add(field, fmt.Sprintf("%sから%sの範囲で入力してください", trimFloat(min), trimFloat(max)))
	}
	return f
}

// Decimal parses an optional arbitrary-precision number.
func (c *Checker) Decimal(field, value string) decimal.NullDecimal {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		c.Add(field, msgInvalidNumber)
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Err returns a validation error carrying every collected message, or nil.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return pkgerrors.Validation(msgFormInvalid, c.errs)
}

// FormatDate renders an optional date for a form input.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// FormatClock trims a stored time-of-day to HH:MM.
func FormatClock(value string) string {
	if len(value) > len(ClockLayout) {
		return value[:len(ClockLayout)]
	}
	return value
}

// FormatID renders an optional identifier for a form input.
func FormatID(id *uint64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(*id, 10)
}

// FormatDecimal renders an optional measurement for display.
func FormatDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
