package calc

import (
	"math"
	"reflect"
	"testing"
)

func woodVerticalInput() CalcInput {
	return CalcInput{
		Spec: FenceSpec{
			Type:     FenceTypeWoodVertical,
			HeightFt: 6,
			PostType: PostTypeWood,
			Post:     &MaterialRef{SKU: "PST-CEDAR-4x4", Name: "Cedar post 4x4x8", UnitCost: 12.50},
			WoodVertical: &WoodVerticalSpec{
				Style:  WVStyleStandard,
				Picket: &MaterialRef{SKU: "PKT-CEDAR-6", Name: "Cedar picket 6ft", UnitCost: 3.10, ActualWidthIn: 5.5},
				Rail:   &MaterialRef{SKU: "RAIL-2x4-8", Name: "Rail 2x4x8", UnitCost: 4.25},
			},
		},
		NetLength: 100,
		Lines:     1,
		Gates:     0,
		Concrete: ConcreteRefs{
			SandGravel: &MaterialRef{SKU: SKUSandGravelBag, Name: "Sand/gravel bag", UnitCost: 5.00},
			Portland:   &MaterialRef{SKU: SKUPortlandBag, Name: "Portland bag", UnitCost: 9.00},
			Quickrock:  &MaterialRef{SKU: SKUQuickrockBag, Name: "Quickrock bag", UnitCost: 6.50},
		},
		Rates: map[string]float64{
			LaborSetPostWood: 2.00,
			LaborNailUp:      3.50,
			LaborGateWood:    85.00,
		},
	}
}

func findMaterial(t *testing.T, res Result, sku string) MaterialLine {
	t.Helper()
	for _, m := range res.Materials {
		if m.SKU == sku {
			return m
		}
	}
	t.Fatalf("material %s not found in result", sku)
	return MaterialLine{}
}

func findLabor(res Result, code string) (LaborLine, bool) {
	for _, l := range res.Labor {
		if l.Code == code {
			return l, true
		}
	}
	return LaborLine{}, false
}

func TestPostCountFormula(t *testing.T) {
	cases := []struct {
		name      string
		netLength float64
		spacing   float64
		lines     int
		gates     int
		postType  PostType
		want      int
	}{
		{"100ft 4 lines", 100, 8, 4, 0, PostTypeWood, 15},
		{"single line no gates", 100, 8, 1, 0, PostTypeWood, 14},
		{"two lines add nothing", 100, 8, 2, 0, PostTypeWood, 14},
		{"three lines add one", 100, 8, 3, 0, PostTypeWood, 15},
		{"wood posts two jambs per gate", 100, 8, 1, 2, PostTypeWood, 18},
		{"steel posts one per gate", 100, 8, 1, 2, PostTypeSteel, 16},
		{"exact division still plus one", 96, 8, 1, 0, PostTypeWood, 13},
		{"horizontal spacing", 60, 6, 1, 0, PostTypeWood, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PostCount(tc.netLength, tc.spacing, tc.lines, tc.gates, tc.postType)
			if got != tc.want {
				t.Fatalf("PostCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateDeterminism(t *testing.T) {
	in := woodVerticalInput()
	first := Calculate(in)
	for i := 0; i < 5; i++ {
		again := Calculate(in)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from first run", i+1)
		}
	}
}

func TestConcreteRatio(t *testing.T) {
	// 15根立柱 ⇒ 2袋砂石、1袋水泥、8袋速凝
	in := woodVerticalInput()
	in.Lines = 4 // posts = 15

	res := Calculate(in)

	if got := findMaterial(t, res, SKUSandGravelBag).Quantity; got != 2 {
		t.Fatalf("sand/gravel bags = %v, want 2", got)
	}
	if got := findMaterial(t, res, SKUPortlandBag).Quantity; got != 1 {
		t.Fatalf("portland bags = %v, want 1", got)
	}
	if got := findMaterial(t, res, SKUQuickrockBag).Quantity; got != 8 {
		t.Fatalf("quickrock bags = %v, want 8", got)
	}
}

func TestWoodVerticalPicketCount(t *testing.T) {
	cases := []struct {
		style string
		want  float64
	}{
		// ceil(100*12/5.5 * 1.025 * mult)
		{WVStyleStandard, math.Ceil(100 * 12 / 5.5 * 1.025)},
		{WVStyleGoodNeighbor, math.Ceil(100 * 12 / 5.5 * 1.025 * 1.1)},
		{WVStyleBoardOnBoard, math.Ceil(100 * 12 / 5.5 * 1.025 * 1.14)},
	}
	for _, tc := range cases {
		t.Run(tc.style, func(t *testing.T) {
			in := woodVerticalInput()
			in.Spec.WoodVertical.Style = tc.style
			res := Calculate(in)
			if got := findMaterial(t, res, "PKT-CEDAR-6").Quantity; got != tc.want {
				t.Fatalf("picket qty = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWoodVerticalRailsAndBrackets(t *testing.T) {
	in := woodVerticalInput()
	res := Calculate(in)

	// 14根柱，6英尺高默认2道横档 ⇒ 26根
	if got := findMaterial(t, res, "RAIL-2x4-8").Quantity; got != 26 {
		t.Fatalf("rail qty = %v, want 26", got)
	}
	if _, ok := findLabor(res, LaborSetPostSteel); ok {
		t.Fatal("wood post fence should not carry steel post labor")
	}
	for _, m := range res.Materials {
		if m.SKU == SKURailBracket {
			t.Fatal("wood post fence should not carry rail brackets")
		}
	}

	// 钢柱：支架 = 柱数 × 横档道数，固定单价
	in.Spec.PostType = PostTypeSteel
	res = Calculate(in)
	br := findMaterial(t, res, SKURailBracket)
	if br.Quantity != 28 {
		t.Fatalf("bracket qty = %v, want 28", br.Quantity)
	}
	if br.UnitCost != railBracketUnitCost {
		t.Fatalf("bracket unit cost = %v, want %v", br.UnitCost, railBracketUnitCost)
	}
}

func TestTallFenceGetsThirdRail(t *testing.T) {
	in := woodVerticalInput()
	in.Spec.HeightFt = 8
	res := Calculate(in)
	if got := findMaterial(t, res, "RAIL-2x4-8").Quantity; got != 39 {
		t.Fatalf("rail qty = %v, want 39 (14 posts, 3 rails)", got)
	}
	if _, ok := findLabor(res, LaborTallSurcharge); !ok {
		t.Fatal("expected tall fence surcharge labor line")
	}
}

func TestWoodVerticalCapTrimByOwnLength(t *testing.T) {
	in := woodVerticalInput()
	in.Spec.WoodVertical.Cap = &MaterialRef{SKU: "CAP-2x6-12", Name: "Cap 2x6x12", UnitCost: 9.75, LengthFt: 12}
	in.Spec.WoodVertical.Trim = &MaterialRef{SKU: "TRIM-1x4-8", Name: "Trim 1x4x8", UnitCost: 2.95, LengthFt: 8}

	res := Calculate(in)

	if got := findMaterial(t, res, "CAP-2x6-12").Quantity; got != 9 {
		t.Fatalf("cap qty = %v, want ceil(100/12)=9", got)
	}
	if got := findMaterial(t, res, "TRIM-1x4-8").Quantity; got != 13 {
		t.Fatalf("trim qty = %v, want ceil(100/8)=13", got)
	}
	if _, ok := findLabor(res, LaborCapInstall); !ok {
		t.Fatal("expected cap install labor line")
	}
	if _, ok := findLabor(res, LaborTrimInstall); !ok {
		t.Fatal("expected trim install labor line")
	}
}

func TestWoodHorizontal(t *testing.T) {
	in := CalcInput{
		Spec: FenceSpec{
			Type:     FenceTypeWoodHorizontal,
			HeightFt: 6,
			PostType: PostTypeWood,
			Post:     &MaterialRef{SKU: "PST-CEDAR-4x4", Name: "Cedar post", UnitCost: 12.50},
			WoodHorizontal: &WoodHorizontalSpec{
				Style:  WHStyleStandard,
				Board:  &MaterialRef{SKU: "BRD-1x6-6", Name: "Board 1x6", UnitCost: 5.40, ActualWidthIn: 5.5},
				Nailer: &MaterialRef{SKU: "NLR-2x4-8", Name: "Nailer 2x4", UnitCost: 4.25},
			},
		},
		NetLength: 60,
		Lines:     1,
		Rates:     map[string]float64{},
	}

	res := Calculate(in)

	// rows = ceil(72/5.5) = 14, sections = ceil(60/6) = 10
	if got := findMaterial(t, res, "BRD-1x6-6").Quantity; got != 140 {
		t.Fatalf("board qty = %v, want 140", got)
	}
	if got := findMaterial(t, res, "NLR-2x4-8").Quantity; got != 10 {
		t.Fatalf("nailer qty = %v, want one per section (10)", got)
	}

	// 露柱样式：每柱2根
	in.Spec.WoodHorizontal.Style = WHStyleExposed
	res = Calculate(in)
	if got := findMaterial(t, res, "NLR-2x4-8").Quantity; got != 22 {
		t.Fatalf("exposed nailer qty = %v, want posts*2 = 22", got)
	}
}

func TestIron(t *testing.T) {
	in := CalcInput{
		Spec: FenceSpec{
			Type:     FenceTypeIron,
			HeightFt: 5,
			PostType: PostTypeSteel,
			Post:     &MaterialRef{SKU: "PST-STEEL-2", Name: "Steel post", UnitCost: 22.00},
			Iron: &IronSpec{
				Style:         IronStyleFlatTop,
				RailsPerPanel: 3,
				Panel:         &MaterialRef{SKU: "IRN-PANEL-8", Name: "Iron panel 8ft", UnitCost: 78.00},
				Bracket:       &MaterialRef{SKU: "IRN-BRACKET", Name: "Panel bracket", UnitCost: 1.20},
				PostCap:       &MaterialRef{SKU: "IRN-POSTCAP", Name: "Post cap", UnitCost: 2.40},
			},
		},
		NetLength: 100,
		Lines:     1,
		Gates:     1,
		Rates:     map[string]float64{LaborGateIron: 120},
	}

	res := Calculate(in)

	// panels = ceil(100/8) = 13; brackets = 13*3*2 = 78; posts = 14+1门 = 15
	if got := findMaterial(t, res, "IRN-PANEL-8").Quantity; got != 13 {
		t.Fatalf("panel qty = %v, want 13", got)
	}
	if got := findMaterial(t, res, "IRN-BRACKET").Quantity; got != 78 {
		t.Fatalf("bracket qty = %v, want 78", got)
	}
	if got := findMaterial(t, res, "IRN-POSTCAP").Quantity; got != 15 {
		t.Fatalf("post cap qty = %v, want one per post (15)", got)
	}
	gl, ok := findLabor(res, LaborGateIron)
	if !ok {
		t.Fatal("expected iron gate labor line")
	}
	if gl.Quantity != 1 || gl.Total != 120 {
		t.Fatalf("gate labor = %+v, want qty 1 total 120", gl)
	}
}

func TestMissingMaterialOmitsLineNotError(t *testing.T) {
	in := woodVerticalInput()
	in.Spec.WoodVertical.Picket = nil
	in.Concrete.Portland = nil

	res := Calculate(in)

	for _, m := range res.Materials {
		if m.SKU == "PKT-CEDAR-6" || m.SKU == SKUPortlandBag {
			t.Fatalf("omitted material %s still present", m.SKU)
		}
	}
	wantMissing := map[string]bool{"picket": true, "concrete.portland": true}
	for _, name := range res.Missing {
		delete(wantMissing, name)
	}
	if len(wantMissing) != 0 {
		t.Fatalf("missing entries not reported: %v (got %v)", wantMissing, res.Missing)
	}
}
