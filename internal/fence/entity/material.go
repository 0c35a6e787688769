package entity

import (
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/calc"
)

// Material 物料目录条目（只读主数据，由导入工具维护）
type Material struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	SKU           string     `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Name          string     `json:"name" gorm:"size:128;not null"`
	Category      string     `json:"category" gorm:"size:32;not null;index"`
	SubCategory   string     `json:"sub_category" gorm:"size:32"`
	UnitCost      float64    `json:"unit_cost" gorm:"type:decimal(15,4);not null;default:0"`
	LengthFt      float64    `json:"length_ft" gorm:"type:decimal(8,2)"`
	WidthNominal  string     `json:"width_nominal" gorm:"size:16"`
	ActualWidthIn float64    `json:"actual_width_in" gorm:"type:decimal(8,3)"`
	ThicknessIn   float64    `json:"thickness_in" gorm:"type:decimal(8,3)"`
	Status        string     `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at" gorm:"index"`
}

func (Material) TableName() string {
	return "materials"
}

// MaterialStatus 物料状态
const (
	MaterialStatusActive   = "active"
	MaterialStatusInactive = "inactive"
)

// 物料大类
const (
	MaterialCategoryPost     = "post"
	MaterialCategoryPicket   = "picket"
	MaterialCategoryRail     = "rail"
	MaterialCategoryBoard    = "board"
	MaterialCategoryNailer   = "nailer"
	MaterialCategoryCap      = "cap"
	MaterialCategoryTrim     = "trim"
	MaterialCategoryPanel    = "panel"
	MaterialCategoryHardware = "hardware"
	MaterialCategoryConcrete = "concrete"
)

// Ref 转为计算器用的物料快照
func (m *Material) Ref() *calc.MaterialRef {
	if m == nil {
		return nil
	}
	return &calc.MaterialRef{
		SKU:           m.SKU,
		Name:          m.Name,
		UnitCost:      m.UnitCost,
		LengthFt:      m.LengthFt,
		ActualWidthIn: m.ActualWidthIn,
	}
}
