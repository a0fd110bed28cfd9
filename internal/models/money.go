package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// amountScale 金额与积分统一保留 2 位小数（四舍五入，0.5 进位）
const amountScale = 2

// Money 货币金额（保留 2 位小数）
type Money struct {
	decimal.Decimal
}

// Points 钱包积分（保留 2 位小数）
type Points struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(amountScale)}
}

// NewMoney 从字符串创建金额，解析失败返回 0
func NewMoney(value string) Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{Decimal: decimal.Zero}
	}
	return NewMoneyFromDecimal(d)
}

// NewPointsFromDecimal 从 decimal 创建积分
func NewPointsFromDecimal(amount decimal.Decimal) Points {
	return Points{Decimal: amount.Round(amountScale)}
}

// NewPoints 从字符串创建积分，解析失败返回 0
func NewPoints(value string) Points {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Points{Decimal: decimal.Zero}
	}
	return NewPointsFromDecimal(d)
}

// RoundAmount 统一舍入规则
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(amountScale)
}

// MarshalJSON 输出 2 位小数字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return marshalAmount(m.Decimal)
}

// UnmarshalJSON 解析金额（字符串或数字）
func (m *Money) UnmarshalJSON(b []byte) error {
	d, err := unmarshalAmount(b)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(amountScale).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	d, err := scanAmount(value)
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(amountScale).StringFixed(amountScale)
}

// MarshalJSON 输出 2 位小数字符串
func (p Points) MarshalJSON() ([]byte, error) {
	return marshalAmount(p.Decimal)
}

// UnmarshalJSON 解析积分（字符串或数字）
func (p *Points) UnmarshalJSON(b []byte) error {
	d, err := unmarshalAmount(b)
	if err != nil {
		return err
	}
	p.Decimal = d
	return nil
}

// Value 用于数据库写入
func (p Points) Value() (driver.Value, error) {
	return p.Decimal.Round(amountScale).Value()
}

// Scan 用于数据库读取
func (p *Points) Scan(value interface{}) error {
	d, err := scanAmount(value)
	if err != nil {
		return err
	}
	p.Decimal = d
	return nil
}

// String 返回 2 位小数格式
func (p Points) String() string {
	return p.Decimal.Round(amountScale).StringFixed(amountScale)
}

func marshalAmount(d decimal.Decimal) ([]byte, error) {
	return json.Marshal(d.Round(amountScale).StringFixed(amountScale))
}

func unmarshalAmount(b []byte) (decimal.Decimal, error) {
	if len(b) == 0 || string(b) == "null" {
		return decimal.Zero, nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, err
		}
		return d.Round(amountScale), nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(amountScale), nil
}

func scanAmount(value interface{}) (decimal.Decimal, error) {
	if value == nil {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return decimal.Zero, err
	}
	return d.Round(amountScale), nil
}
