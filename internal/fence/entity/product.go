package entity

import (
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/calc"
)

// ProductCosting 目录SKU上缓存的标准成本字段，由重算服务维护
type ProductCosting struct {
	StandardMaterialCost     float64    `json:"standard_material_cost" gorm:"type:decimal(15,4);default:0"`
	StandardCostPerFoot      float64    `json:"standard_cost_per_foot" gorm:"type:decimal(15,4);default:0"`
	StandardCostCalculatedAt *time.Time `json:"standard_cost_calculated_at"`
}

// WoodVerticalProduct 木质竖板围栏SKU
type WoodVerticalProduct struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	SKUCode          string  `json:"sku_code" gorm:"size:64;not null;uniqueIndex"`
	Name             string  `json:"name" gorm:"size:128;not null"`
	HeightFt         float64 `json:"height_ft" gorm:"type:decimal(8,2);not null"`
	Style            string  `json:"style" gorm:"size:32;not null;default:standard"`
	PostType         string  `json:"post_type" gorm:"size:16;not null;default:WOOD"`
	RailCount        int     `json:"rail_count" gorm:"default:0"`
	PostMaterialID   *string `json:"post_material_id" gorm:"size:32"`
	PicketMaterialID *string `json:"picket_material_id" gorm:"size:32"`
	RailMaterialID   *string `json:"rail_material_id" gorm:"size:32"`
	CapMaterialID    *string `json:"cap_material_id" gorm:"size:32"`
	TrimMaterialID   *string `json:"trim_material_id" gorm:"size:32"`
	Status           string  `json:"status" gorm:"size:16;not null;default:active"`
	ProductCosting
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	PostMaterial   *Material `json:"post_material,omitempty" gorm:"foreignKey:PostMaterialID"`
	PicketMaterial *Material `json:"picket_material,omitempty" gorm:"foreignKey:PicketMaterialID"`
	RailMaterial   *Material `json:"rail_material,omitempty" gorm:"foreignKey:RailMaterialID"`
	CapMaterial    *Material `json:"cap_material,omitempty" gorm:"foreignKey:CapMaterialID"`
	TrimMaterial   *Material `json:"trim_material,omitempty" gorm:"foreignKey:TrimMaterialID"`
}

func (WoodVerticalProduct) TableName() string {
	return "wood_vertical_products"
}

// Spec 由SKU定义构造计算器规格（依赖已Preload的物料关联）
func (p *WoodVerticalProduct) Spec() calc.FenceSpec {
	return calc.FenceSpec{
		Type:     calc.FenceTypeWoodVertical,
		HeightFt: p.HeightFt,
		PostType: calc.PostType(p.PostType),
		Post:     p.PostMaterial.Ref(),
		WoodVertical: &calc.WoodVerticalSpec{
			Style:  p.Style,
			Rails:  p.RailCount,
			Picket: p.PicketMaterial.Ref(),
			Rail:   p.RailMaterial.Ref(),
			Cap:    p.CapMaterial.Ref(),
			Trim:   p.TrimMaterial.Ref(),
		},
	}
}

// WoodHorizontalProduct 木质横板围栏SKU
type WoodHorizontalProduct struct {
	ID               string  `json:"id" gorm:"primaryKey;size:32"`
	SKUCode          string  `json:"sku_code" gorm:"size:64;not null;uniqueIndex"`
	Name             string  `json:"name" gorm:"size:128;not null"`
	HeightFt         float64 `json:"height_ft" gorm:"type:decimal(8,2);not null"`
	Style            string  `json:"style" gorm:"size:32;not null;default:standard"`
	PostType         string  `json:"post_type" gorm:"size:16;not null;default:WOOD"`
	PostMaterialID   *string `json:"post_material_id" gorm:"size:32"`
	BoardMaterialID  *string `json:"board_material_id" gorm:"size:32"`
	NailerMaterialID *string `json:"nailer_material_id" gorm:"size:32"`
	CapMaterialID    *string `json:"cap_material_id" gorm:"size:32"`
	Status           string  `json:"status" gorm:"size:16;not null;default:active"`
	ProductCosting
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	PostMaterial   *Material `json:"post_material,omitempty" gorm:"foreignKey:PostMaterialID"`
	BoardMaterial  *Material `json:"board_material,omitempty" gorm:"foreignKey:BoardMaterialID"`
	NailerMaterial *Material `json:"nailer_material,omitempty" gorm:"foreignKey:NailerMaterialID"`
	CapMaterial    *Material `json:"cap_material,omitempty" gorm:"foreignKey:CapMaterialID"`
}

func (WoodHorizontalProduct) TableName() string {
	return "wood_horizontal_products"
}

// Spec 由SKU定义构造计算器规格
func (p *WoodHorizontalProduct) Spec() calc.FenceSpec {
	return calc.FenceSpec{
		Type:     calc.FenceTypeWoodHorizontal,
		HeightFt: p.HeightFt,
		PostType: calc.PostType(p.PostType),
		Post:     p.PostMaterial.Ref(),
		WoodHorizontal: &calc.WoodHorizontalSpec{
			Style:  p.Style,
			Board:  p.BoardMaterial.Ref(),
			Nailer: p.NailerMaterial.Ref(),
			Cap:    p.CapMaterial.Ref(),
		},
	}
}

// IronProduct 铁艺围栏SKU
type IronProduct struct {
	ID                string  `json:"id" gorm:"primaryKey;size:32"`
	SKUCode           string  `json:"sku_code" gorm:"size:64;not null;uniqueIndex"`
	Name              string  `json:"name" gorm:"size:128;not null"`
	HeightFt          float64 `json:"height_ft" gorm:"type:decimal(8,2);not null"`
	Style             string  `json:"style" gorm:"size:32;not null;default:flat_top"`
	RailsPerPanel     int     `json:"rails_per_panel" gorm:"default:2"`
	PostMaterialID    *string `json:"post_material_id" gorm:"size:32"`
	PanelMaterialID   *string `json:"panel_material_id" gorm:"size:32"`
	BracketMaterialID *string `json:"bracket_material_id" gorm:"size:32"`
	PostCapMaterialID *string `json:"post_cap_material_id" gorm:"size:32"`
	Status            string  `json:"status" gorm:"size:16;not null;default:active"`
	ProductCosting
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`

	// 关联
	PostMaterial    *Material `json:"post_material,omitempty" gorm:"foreignKey:PostMaterialID"`
	PanelMaterial   *Material `json:"panel_material,omitempty" gorm:"foreignKey:PanelMaterialID"`
	BracketMaterial *Material `json:"bracket_material,omitempty" gorm:"foreignKey:BracketMaterialID"`
	PostCapMaterial *Material `json:"post_cap_material,omitempty" gorm:"foreignKey:PostCapMaterialID"`
}

func (IronProduct) TableName() string {
	return "iron_products"
}

// Spec 由SKU定义构造计算器规格。铁艺立柱固定为钢柱。
func (p *IronProduct) Spec() calc.FenceSpec {
	return calc.FenceSpec{
		Type:     calc.FenceTypeIron,
		HeightFt: p.HeightFt,
		PostType: calc.PostTypeSteel,
		Post:     p.PostMaterial.Ref(),
		Iron: &calc.IronSpec{
			Style:         p.Style,
			RailsPerPanel: p.RailsPerPanel,
			Panel:         p.PanelMaterial.Ref(),
			Bracket:       p.BracketMaterial.Ref(),
			PostCap:       p.PostCapMaterial.Ref(),
		},
	}
}

// ProductLaborCost SKU × 业务单元的标准人工成本行
type ProductLaborCost struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	SKUCode           string    `json:"sku_code" gorm:"size:64;not null;uniqueIndex:idx_plc_sku_unit"`
	FenceType         string    `json:"fence_type" gorm:"size:32;not null"`
	BusinessUnitID    string    `json:"business_unit_id" gorm:"size:32;not null;uniqueIndex:idx_plc_sku_unit"`
	StandardLaborCost float64   `json:"standard_labor_cost" gorm:"type:decimal(15,4);not null;default:0"`
	CalculatedAt      time.Time `json:"calculated_at"`

	// 关联
	BusinessUnit *BusinessUnit `json:"business_unit,omitempty" gorm:"foreignKey:BusinessUnitID"`
}

func (ProductLaborCost) TableName() string {
	return "product_labor_costs"
}
