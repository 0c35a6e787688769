package calc

import "math"

// 固定五金/混凝土SKU。这些不随规格配置，目录里按此编码维护。
const (
	SKURailBracket   = "HW-RAIL-BRACKET"
	SKUSandGravelBag = "CON-SANDGRAVEL"
	SKUPortlandBag   = "CON-PORTLAND"
	SKUQuickrockBag  = "CON-QUICKROCK"
)

// 钢柱围栏的横档支架按固定单价计，不走物料目录
const railBracketUnitCost = 1.85

// 板材损耗系数（竖板）
const picketWasteFactor = 1.025

// 铁艺面板标准宽度（英尺）
const ironPanelWidthFt = 8

// ConcreteRefs 混凝土三件套的目录快照，由调用方按固定SKU解析。
// 任一缺失时对应行省略并记入 Missing。
type ConcreteRefs struct {
	SandGravel *MaterialRef
	Portland   *MaterialRef
	Quickrock  *MaterialRef
}

// CalcInput 一次数量/成本计算的全部输入。
// Rates 为工种编码到单价的映射，缺失按0计（未定价，不报错）。
type CalcInput struct {
	Spec      FenceSpec
	NetLength float64 // 净长度（英尺），不含门洞
	Lines     int     // 物理围栏线数，>=1
	Gates     int     // 门数量，>=0
	Concrete  ConcreteRefs
	Rates     map[string]float64
}

// MaterialLine 物料行
type MaterialLine struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Total    float64 `json:"total"`
}

// LaborLine 人工行
type LaborLine struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Total       float64 `json:"total"`
}

// Result 计算结果。Missing 列出因缺物料引用而省略的行，
// 作为报价不完整的提示信号，不作为错误。
type Result struct {
	Materials []MaterialLine `json:"materials"`
	Labor     []LaborLine    `json:"labor"`
	Missing   []string       `json:"missing,omitempty"`
}

// MaterialTotal 物料合计
func (r *Result) MaterialTotal() float64 {
	var sum float64
	for _, m := range r.Materials {
		sum += m.Total
	}
	return sum
}

// LaborTotal 人工合计
func (r *Result) LaborTotal() float64 {
	var sum float64
	for _, l := range r.Labor {
		sum += l.Total
	}
	return sum
}

// PostCount 立柱数量公式：
// ceil(净长/间距)+1，多于2条线时每2条额外线加1根转角柱；
// 钢柱围栏每门加1根，木柱围栏每门加2根钢门柱。
func PostCount(netLength, spacing float64, lines, gates int, postType PostType) int {
	posts := int(math.Ceil(netLength/spacing)) + 1
	if lines > 2 {
		posts += int(math.Ceil(float64(lines-2) / 2))
	}
	if postType == PostTypeSteel {
		posts += gates
	} else {
		posts += 2 * gates
	}
	return posts
}

// Calculate 数量计算器：纯函数，相同输入恒得相同输出。
// 物料数量在公式内向上取整；人工按英尺连续计价不取整。
func Calculate(in CalcInput) Result {
	var res Result
	spacing := in.Spec.PostSpacing()
	posts := PostCount(in.NetLength, spacing, in.Lines, in.Gates, in.Spec.PostType)

	res.addMaterial("post", in.Spec.Post, float64(posts))

	switch in.Spec.Type {
	case FenceTypeWoodVertical:
		calcWoodVertical(&res, in, posts)
	case FenceTypeWoodHorizontal:
		calcWoodHorizontal(&res, in, posts)
	case FenceTypeIron:
		calcIron(&res, in, posts)
	}

	addConcrete(&res, in.Concrete, posts)
	addLabor(&res, in)
	return res
}

func calcWoodVertical(res *Result, in CalcInput, posts int) {
	wv := in.Spec.WoodVertical
	if wv == nil {
		res.Missing = append(res.Missing, "wood_vertical")
		return
	}

	if wv.Picket == nil || wv.Picket.ActualWidthIn <= 0 {
		res.Missing = append(res.Missing, "picket")
	} else {
		qty := math.Ceil(in.NetLength * 12 / wv.Picket.ActualWidthIn * picketWasteFactor * styleMultiplier(wv.Style))
		res.addMaterial("picket", wv.Picket, qty)
	}

	rails := wv.Rails
	if rails <= 0 {
		rails = DefaultRailCount(in.Spec.HeightFt)
	}
	res.addMaterial("rail", wv.Rail, float64((posts-1)*rails))

	if in.Spec.PostType == PostTypeSteel {
		qty := float64(posts * rails)
		res.Materials = append(res.Materials, MaterialLine{
			SKU:      SKURailBracket,
			Name:     "Steel post rail bracket",
			Quantity: qty,
			UnitCost: railBracketUnitCost,
			Total:    qty * railBracketUnitCost,
		})
	}

	// 压顶/饰条按自身板长折算，均为可选
	res.addOptionalByLength("cap", wv.Cap, in.NetLength)
	res.addOptionalByLength("trim", wv.Trim, in.NetLength)
}

func calcWoodHorizontal(res *Result, in CalcInput, posts int) {
	wh := in.Spec.WoodHorizontal
	if wh == nil {
		res.Missing = append(res.Missing, "wood_horizontal")
		return
	}

	sections := math.Ceil(in.NetLength / in.Spec.PostSpacing())

	if wh.Board == nil || wh.Board.ActualWidthIn <= 0 {
		res.Missing = append(res.Missing, "board")
	} else {
		rows := math.Ceil(in.Spec.HeightFt * 12 / wh.Board.ActualWidthIn)
		res.addMaterial("board", wh.Board, rows*sections)
	}

	nailers := sections
	if wh.Style == WHStyleExposed {
		nailers = float64(posts * 2)
	}
	res.addMaterial("nailer", wh.Nailer, nailers)

	res.addOptionalByLength("cap", wh.Cap, in.NetLength)
}

func calcIron(res *Result, in CalcInput, posts int) {
	ir := in.Spec.Iron
	if ir == nil {
		res.Missing = append(res.Missing, "iron")
		return
	}

	panels := math.Ceil(in.NetLength / ironPanelWidthFt)
	res.addMaterial("panel", ir.Panel, panels)

	railsPerPanel := ir.RailsPerPanel
	if railsPerPanel <= 0 {
		railsPerPanel = 2
	}
	res.addMaterial("bracket", ir.Bracket, panels*float64(railsPerPanel)*2)

	// 铁艺围栏每根立柱配一个柱帽
	res.addMaterial("post_cap", ir.PostCap, float64(posts))
}

// addConcrete 混凝土固定三件套配比，只依赖立柱数
func addConcrete(res *Result, refs ConcreteRefs, posts int) {
	res.addMaterial("concrete.sand_gravel", refs.SandGravel, math.Ceil(float64(posts)/10))
	res.addMaterial("concrete.portland", refs.Portland, math.Ceil(float64(posts)/20))
	res.addMaterial("concrete.quickrock", refs.Quickrock, math.Ceil(float64(posts)*0.5))
}

// DefaultRailCount 高度决定的默认横档道数
func DefaultRailCount(heightFt float64) int {
	if heightFt > 6 {
		return 3
	}
	return 2
}

// addMaterial 追加一条物料行；引用缺失时记入 Missing。
func (r *Result) addMaterial(name string, ref *MaterialRef, qty float64) {
	if ref == nil {
		r.Missing = append(r.Missing, name)
		return
	}
	r.Materials = append(r.Materials, MaterialLine{
		SKU:      ref.SKU,
		Name:     ref.Name,
		Quantity: qty,
		UnitCost: ref.UnitCost,
		Total:    qty * ref.UnitCost,
	})
}

// addOptionalByLength 可选物料按其板长折算数量；缺失时静默跳过。
func (r *Result) addOptionalByLength(name string, ref *MaterialRef, netLength float64) {
	if ref == nil {
		return
	}
	if ref.LengthFt <= 0 {
		r.Missing = append(r.Missing, name)
		return
	}
	r.addMaterial(name, ref, math.Ceil(netLength/ref.LengthFt))
}
