package calc

// FenceType 围栏类型
type FenceType string

const (
	FenceTypeWoodVertical   FenceType = "wood_vertical"
	FenceTypeWoodHorizontal FenceType = "wood_horizontal"
	FenceTypeIron           FenceType = "iron"
)

// PostType 立柱类型
type PostType string

const (
	PostTypeWood  PostType = "WOOD"
	PostTypeSteel PostType = "STEEL"
)

// 木质竖板围栏样式
const (
	WVStyleStandard     = "standard"
	WVStyleGoodNeighbor = "good_neighbor"
	WVStyleBoardOnBoard = "board_on_board"
)

// 木质横板围栏样式
const (
	WHStyleStandard = "standard"
	WHStyleExposed  = "exposed_post"
)

// 铁艺围栏样式
const (
	IronStyleFlatTop  = "flat_top"
	IronStyleSpearTop = "spear_top"
)

// MaterialRef 物料引用：从物料目录解析出的单个物料快照。
// 计算器只读这些字段，不回查数据库。
type MaterialRef struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	UnitCost      float64 `json:"unit_cost"`
	LengthFt      float64 `json:"length_ft"`
	ActualWidthIn float64 `json:"actual_width_in"`
}

// WoodVerticalSpec 木质竖板围栏的物料引用。
// Picket/Rail 为必选（缺失时对应行省略并记入 Missing），Cap/Trim 可选。
type WoodVerticalSpec struct {
	Style  string
	Rails  int // 横档道数，由高度决定（<=6ft 为 2，更高为 3）
	Picket *MaterialRef
	Rail   *MaterialRef
	Cap    *MaterialRef
	Trim   *MaterialRef
}

// WoodHorizontalSpec 木质横板围栏的物料引用
type WoodHorizontalSpec struct {
	Style  string
	Board  *MaterialRef
	Nailer *MaterialRef
	Cap    *MaterialRef
}

// IronSpec 铁艺围栏的物料引用
type IronSpec struct {
	Style         string
	RailsPerPanel int
	Panel         *MaterialRef
	Bracket       *MaterialRef
	PostCap       *MaterialRef
}

// FenceSpec 围栏规格：一段围栏（或一个目录SKU）的几何/样式描述。
// Type 决定哪个变体字段有效，其余必须为 nil。
type FenceSpec struct {
	Type           FenceType
	HeightFt       float64
	PostType       PostType
	Post           *MaterialRef
	WoodVertical   *WoodVerticalSpec
	WoodHorizontal *WoodHorizontalSpec
	Iron           *IronSpec
}

// PostSpacing 立柱间距（英尺），由样式决定
func (s *FenceSpec) PostSpacing() float64 {
	switch s.Type {
	case FenceTypeWoodHorizontal:
		// 横板围栏跨距受板材挠度限制
		return 6
	default:
		// 竖板围栏与铁艺面板均为8英尺标准跨距
		return 8
	}
}

// Style 返回当前变体的样式字符串
func (s *FenceSpec) Style() string {
	switch s.Type {
	case FenceTypeWoodVertical:
		if s.WoodVertical != nil {
			return s.WoodVertical.Style
		}
	case FenceTypeWoodHorizontal:
		if s.WoodHorizontal != nil {
			return s.WoodHorizontal.Style
		}
	case FenceTypeIron:
		if s.Iron != nil {
			return s.Iron.Style
		}
	}
	return ""
}

// styleMultiplier 竖板样式的板材放量系数（含2.5%损耗之外的样式系数）
func styleMultiplier(style string) float64 {
	switch style {
	case WVStyleGoodNeighbor:
		return 1.1
	case WVStyleBoardOnBoard:
		return 1.14
	default:
		return 1.0
	}
}
