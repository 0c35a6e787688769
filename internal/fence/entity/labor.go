package entity

import "time"

// BusinessUnit 业务单元：独立的人工定价范围
type BusinessUnit struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessUnit) TableName() string {
	return "business_units"
}

// LaborCode 工种定义。计价单位 per_foot 或 per_gate。
type LaborCode struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	SKU         string    `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"size:256"`
	UnitType    string    `json:"unit_type" gorm:"size:16;not null;default:per_foot"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (LaborCode) TableName() string {
	return "labor_codes"
}

// LaborUnitType 计价单位
const (
	LaborUnitPerFoot = "per_foot"
	LaborUnitPerGate = "per_gate"
)

// LaborRate 工种 × 业务单元的费率。缺行视为未定价（按0计）。
type LaborRate struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	LaborCodeID    string    `json:"labor_code_id" gorm:"size:32;not null;uniqueIndex:idx_labor_rate_code_unit"`
	BusinessUnitID string    `json:"business_unit_id" gorm:"size:32;not null;uniqueIndex:idx_labor_rate_code_unit"`
	Rate           float64   `json:"rate" gorm:"type:decimal(15,4);not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 关联
	LaborCode    *LaborCode    `json:"labor_code,omitempty" gorm:"foreignKey:LaborCodeID"`
	BusinessUnit *BusinessUnit `json:"business_unit,omitempty" gorm:"foreignKey:BusinessUnitID"`
}

func (LaborRate) TableName() string {
	return "labor_rates"
}
