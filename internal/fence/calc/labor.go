package calc

// 工种编码。费率按业务单元在 labor_rates 表维护，
// 这里只定义"哪种围栏需要哪些工序"的静态映射。
const (
	LaborSetPostWood   = "SET-POST-WOOD"
	LaborSetPostSteel  = "SET-POST-STEEL"
	LaborNailUp        = "NAIL-UP"
	LaborNailUpGN      = "NAIL-UP-GN"
	LaborNailUpBOB     = "NAIL-UP-BOB"
	LaborTallSurcharge = "TALL-FENCE"
	LaborCapInstall    = "CAP-INSTALL"
	LaborTrimInstall   = "TRIM-INSTALL"
	LaborBoardInstall  = "HBOARD-INSTALL"
	LaborNailerInstall = "NAILER-INSTALL"
	LaborPanelInstall  = "PANEL-INSTALL"
	LaborGateWood      = "GATE-INSTALL-WOOD"
	LaborGateIron      = "GATE-INSTALL-IRON"
)

// laborBasis 计价基数
type laborBasis int

const (
	basisPerFoot laborBasis = iota // 数量 = 净长度，不取整
	basisPerGate                   // 数量 = 门数
)

type laborOp struct {
	Code        string
	Description string
	Basis       laborBasis
}

// 高于此高度追加高栏附加费工序
const tallFenceThresholdFt = 6

// laborPlan 按变体/样式/高度/柱型查工序表。查表，不是公式。
func laborPlan(spec FenceSpec, hasCap, hasTrim bool) []laborOp {
	var ops []laborOp

	if spec.PostType == PostTypeSteel {
		ops = append(ops, laborOp{LaborSetPostSteel, "Set steel posts", basisPerFoot})
	} else {
		ops = append(ops, laborOp{LaborSetPostWood, "Set wood posts", basisPerFoot})
	}

	switch spec.Type {
	case FenceTypeWoodVertical:
		switch spec.Style() {
		case WVStyleGoodNeighbor:
			ops = append(ops, laborOp{LaborNailUpGN, "Nail-up good neighbor", basisPerFoot})
		case WVStyleBoardOnBoard:
			ops = append(ops, laborOp{LaborNailUpBOB, "Nail-up board on board", basisPerFoot})
		default:
			ops = append(ops, laborOp{LaborNailUp, "Nail-up", basisPerFoot})
		}
		if hasCap {
			ops = append(ops, laborOp{LaborCapInstall, "Cap install", basisPerFoot})
		}
		if hasTrim {
			ops = append(ops, laborOp{LaborTrimInstall, "Trim install", basisPerFoot})
		}
		ops = append(ops, laborOp{LaborGateWood, "Gate install", basisPerGate})

	case FenceTypeWoodHorizontal:
		ops = append(ops, laborOp{LaborBoardInstall, "Horizontal board install", basisPerFoot})
		if spec.Style() == WHStyleExposed {
			ops = append(ops, laborOp{LaborNailerInstall, "Nailer install", basisPerFoot})
		}
		if hasCap {
			ops = append(ops, laborOp{LaborCapInstall, "Cap install", basisPerFoot})
		}
		ops = append(ops, laborOp{LaborGateWood, "Gate install", basisPerGate})

	case FenceTypeIron:
		ops = append(ops, laborOp{LaborPanelInstall, "Iron panel install", basisPerFoot})
		ops = append(ops, laborOp{LaborGateIron, "Iron gate install", basisPerGate})
	}

	if spec.HeightFt > tallFenceThresholdFt {
		ops = append(ops, laborOp{LaborTallSurcharge, "Tall fence surcharge", basisPerFoot})
	}

	return ops
}

// addLabor 人工行。费率缺失按0计价（未定价），行仍然产出。
func addLabor(res *Result, in CalcInput) {
	var hasCap, hasTrim bool
	switch in.Spec.Type {
	case FenceTypeWoodVertical:
		if wv := in.Spec.WoodVertical; wv != nil {
			hasCap = wv.Cap != nil
			hasTrim = wv.Trim != nil
		}
	case FenceTypeWoodHorizontal:
		if wh := in.Spec.WoodHorizontal; wh != nil {
			hasCap = wh.Cap != nil
		}
	}

	for _, op := range laborPlan(in.Spec, hasCap, hasTrim) {
		qty := in.NetLength
		if op.Basis == basisPerGate {
			if in.Gates == 0 {
				continue
			}
			qty = float64(in.Gates)
		}
		rate := in.Rates[op.Code]
		res.Labor = append(res.Labor, LaborLine{
			Code:        op.Code,
			Description: op.Description,
			Quantity:    qty,
			Rate:        rate,
			Total:       qty * rate,
		})
	}
}

// LaborCodes 全部工种编码，按固定顺序（用于费率表种子/校验）
func LaborCodes() []string {
	return []string{
		LaborSetPostWood,
		LaborSetPostSteel,
		LaborNailUp,
		LaborNailUpGN,
		LaborNailUpBOB,
		LaborTallSurcharge,
		LaborCapInstall,
		LaborTrimInstall,
		LaborBoardInstall,
		LaborNailerInstall,
		LaborPanelInstall,
		LaborGateWood,
		LaborGateIron,
	}
}
