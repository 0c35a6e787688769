package entity

import (
	"math"
	"time"
)

// ProjectStatus 项目履约状态
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusReady      = "ready"
	ProjectStatusSentToYard = "sent_to_yard"
	ProjectStatusStaged     = "staged"
	ProjectStatusLoaded     = "loaded"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// StatusChain 正向履约链，advance 每次只走一步
var StatusChain = []string{
	ProjectStatusDraft,
	ProjectStatusReady,
	ProjectStatusSentToYard,
	ProjectStatusStaged,
	ProjectStatusLoaded,
	ProjectStatusCompleted,
}

// NextStatus 返回正向链上的下一个状态，终态或侧态返回空串
func NextStatus(status string) string {
	for i, s := range StatusChain {
		if s == status && i+1 < len(StatusChain) {
			return StatusChain[i+1]
		}
	}
	return ""
}

// StatusIndex 状态在正向链上的序号，侧态返回-1
func StatusIndex(status string) int {
	for i, s := range StatusChain {
		if s == status {
			return i
		}
	}
	return -1
}

// ValidStatus 状态值是否合法（含侧态）
func ValidStatus(status string) bool {
	if status == ProjectStatusCancelled {
		return true
	}
	for _, s := range StatusChain {
		if s == status {
			return true
		}
	}
	return false
}

// BOMProject 围栏项目：报价落库后的履约主体。
// IsBundle=true 的行是捆组父记录，子项目通过 BundleID 指向它；
// 父记录自身的 BundleID 恒为 nil，且父记录要么有>=2个子项目要么不存在。
type BOMProject struct {
	ID                 string     `json:"id" gorm:"primaryKey;size:32"`
	Code               string     `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name               string     `json:"name" gorm:"size:128;not null"`
	CustomerName       string     `json:"customer_name" gorm:"size:128"`
	Status             string     `json:"status" gorm:"size:16;not null;default:draft"`
	IsArchived         bool       `json:"is_archived" gorm:"default:false;index"`
	PartialPickup      bool       `json:"partial_pickup" gorm:"default:false"`
	PartialPickupNotes string     `json:"partial_pickup_notes" gorm:"type:text"`
	IsBundle           bool       `json:"is_bundle" gorm:"default:false"`
	BundleID           *string    `json:"bundle_id" gorm:"size:32;index"`
	BusinessUnitID     string     `json:"business_unit_id" gorm:"size:32"`
	YardID             string     `json:"yard_id" gorm:"size:32;index"`
	YardSpotID         *string    `json:"yard_spot_id" gorm:"size:32"`
	CrewID             string     `json:"crew_id" gorm:"size:32"`
	ExpectedPickupDate *time.Time `json:"expected_pickup_date" gorm:"type:date"`
	FenceType          string     `json:"fence_type" gorm:"size:32"`
	NetLengthFt        float64    `json:"net_length_ft" gorm:"type:decimal(10,2)"`
	Lines              int        `json:"lines" gorm:"default:1"`
	Gates              int        `json:"gates" gorm:"default:0"`
	MaterialCost       float64    `json:"material_cost" gorm:"type:decimal(15,4);default:0"`
	LaborCost          float64    `json:"labor_cost" gorm:"type:decimal(15,4);default:0"`
	ManualAdjustment   float64    `json:"manual_adjustment" gorm:"type:decimal(15,4);default:0"`
	CostPerFoot        float64    `json:"cost_per_foot" gorm:"type:decimal(15,4);default:0"`
	CreatedBy          string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// 关联
	Bundle        *BOMProject           `json:"bundle,omitempty" gorm:"foreignKey:BundleID"`
	Children      []BOMProject          `json:"children,omitempty" gorm:"foreignKey:BundleID"`
	MaterialLines []ProjectMaterialLine `json:"material_lines,omitempty" gorm:"foreignKey:ProjectID"`
	LaborLines    []ProjectLaborLine    `json:"labor_lines,omitempty" gorm:"foreignKey:ProjectID"`
	YardSpot      *YardSpot             `json:"yard_spot,omitempty" gorm:"foreignKey:YardSpotID"`
}

func (BOMProject) TableName() string {
	return "bom_projects"
}

// TotalCost 物料+人工+手工调整
func (p *BOMProject) TotalCost() float64 {
	return p.MaterialCost + p.LaborCost + p.ManualAdjustment
}

// ProjectMaterialLine 项目物料行。FinalQuantity/ExtendedCost 为派生字段，
// 每次写入时由 RecalcDerived 维护，不允许直接编辑。
type ProjectMaterialLine struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID          string    `json:"project_id" gorm:"size:32;not null;index"`
	MaterialSKU        string    `json:"material_sku" gorm:"size:64;not null"`
	Name               string    `json:"name" gorm:"size:128"`
	CalculatedQuantity float64   `json:"calculated_quantity" gorm:"type:decimal(15,4);not null"`
	ManualQuantity     *float64  `json:"manual_quantity" gorm:"type:decimal(15,4)"`
	FinalQuantity      float64   `json:"final_quantity" gorm:"type:decimal(15,4);not null"`
	UnitCost           float64   `json:"unit_cost" gorm:"type:decimal(15,4);not null;default:0"`
	ExtendedCost       float64   `json:"extended_cost" gorm:"type:decimal(15,4);not null;default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (ProjectMaterialLine) TableName() string {
	return "project_materials"
}

// RecalcDerived 维护派生字段：有手工数量用手工数量，否则对计算数量四舍五入
func (l *ProjectMaterialLine) RecalcDerived() {
	if l.ManualQuantity != nil {
		l.FinalQuantity = *l.ManualQuantity
	} else {
		l.FinalQuantity = math.Round(l.CalculatedQuantity)
	}
	l.ExtendedCost = l.FinalQuantity * l.UnitCost
}

// ProjectLaborLine 项目人工行。人工数量不取整（按英尺连续计价）。
type ProjectLaborLine struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:32"`
	ProjectID          string    `json:"project_id" gorm:"size:32;not null;index"`
	LaborCode          string    `json:"labor_code" gorm:"size:64;not null"`
	Description        string    `json:"description" gorm:"size:256"`
	CalculatedQuantity float64   `json:"calculated_quantity" gorm:"type:decimal(15,4);not null"`
	ManualQuantity     *float64  `json:"manual_quantity" gorm:"type:decimal(15,4)"`
	FinalQuantity      float64   `json:"final_quantity" gorm:"type:decimal(15,4);not null"`
	Rate               float64   `json:"rate" gorm:"type:decimal(15,4);not null;default:0"`
	ExtendedCost       float64   `json:"extended_cost" gorm:"type:decimal(15,4);not null;default:0"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (ProjectLaborLine) TableName() string {
	return "project_labor"
}

// RecalcDerived 人工行派生字段：手工数量优先，计算数量保持原值
func (l *ProjectLaborLine) RecalcDerived() {
	if l.ManualQuantity != nil {
		l.FinalQuantity = *l.ManualQuantity
	} else {
		l.FinalQuantity = l.CalculatedQuantity
	}
	l.ExtendedCost = l.FinalQuantity * l.Rate
}

// Yard 库场
type Yard struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Yard) TableName() string {
	return "yards"
}

// YardSpot 库场货位。一个货位同一时间只能被一个项目独占。
type YardSpot struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:32"`
	YardID              string    `json:"yard_id" gorm:"size:32;not null;index"`
	Code                string    `json:"code" gorm:"size:32;not null"`
	OccupiedByProjectID *string   `json:"occupied_by_project_id" gorm:"size:32;index"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (YardSpot) TableName() string {
	return "yard_spots"
}

// OperationLog 状态流转审计日志
type OperationLog struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	EntityType string    `json:"entity_type" gorm:"size:32;not null"`
	EntityID   string    `json:"entity_id" gorm:"size:32;not null;index"`
	Action     string    `json:"action" gorm:"size:64;not null"`
	FromStatus string    `json:"from_status" gorm:"size:16"`
	ToStatus   string    `json:"to_status" gorm:"size:16"`
	OperatorID string    `json:"operator_id" gorm:"size:32"`
	Notes      string    `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OperationLog) TableName() string {
	return "operation_logs"
}
