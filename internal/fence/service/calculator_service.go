package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/fenceyard/internal/fence/calc"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
)

// CalculatorService 把SKU编码/费率解析成计算器输入并执行计算。
// 计算本身在 calc 包里是纯函数，这里只做目录/费率的取数。
type CalculatorService struct {
	materialRepo *repository.MaterialRepository
	laborRepo    *repository.LaborRepository
}

func NewCalculatorService(materialRepo *repository.MaterialRepository, laborRepo *repository.LaborRepository) *CalculatorService {
	return &CalculatorService{materialRepo: materialRepo, laborRepo: laborRepo}
}

// PreviewMaterials 预览请求中的物料SKU选择。空串表示未选。
type PreviewMaterials struct {
	Post    string `json:"post"`
	Picket  string `json:"picket"`
	Rail    string `json:"rail"`
	Cap     string `json:"cap"`
	Trim    string `json:"trim"`
	Board   string `json:"board"`
	Nailer  string `json:"nailer"`
	Panel   string `json:"panel"`
	Bracket string `json:"bracket"`
	PostCap string `json:"post_cap"`
}

// PreviewRequest 实时报价预览请求
type PreviewRequest struct {
	FenceType      string           `json:"fence_type" binding:"required"`
	HeightFt       float64          `json:"height_ft" binding:"required,gt=0"`
	Style          string           `json:"style"`
	PostType       string           `json:"post_type"`
	RailCount      int              `json:"rail_count"`
	RailsPerPanel  int              `json:"rails_per_panel"`
	NetLengthFt    float64          `json:"net_length_ft" binding:"required,gt=0"`
	Lines          int              `json:"lines"`
	Gates          int              `json:"gates"`
	BusinessUnitID string           `json:"business_unit_id"`
	Materials      PreviewMaterials `json:"materials"`
}

// PreviewResult 预览结果：计算行项 + 合计 + 缺料提示
type PreviewResult struct {
	Result        calc.Result `json:"result"`
	MaterialTotal float64     `json:"material_total"`
	LaborTotal    float64     `json:"labor_total"`
	Total         float64     `json:"total"`
	CostPerFoot   float64     `json:"cost_per_foot"`
}

// Preview 执行一次报价预览。缺失的物料引用不报错，
// 体现在 Result.Missing 里由前端标示为不完整。
func (s *CalculatorService) Preview(ctx context.Context, req *PreviewRequest) (*PreviewResult, error) {
	spec, err := s.buildSpec(ctx, req)
	if err != nil {
		return nil, err
	}

	lines := req.Lines
	if lines < 1 {
		lines = 1
	}

	concrete, err := s.concreteRefs(ctx)
	if err != nil {
		return nil, err
	}

	rates := map[string]float64{}
	if req.BusinessUnitID != "" {
		rates, err = s.laborRepo.RateMap(ctx, req.BusinessUnitID)
		if err != nil {
			return nil, fmt.Errorf("load labor rates for unit %s: %w", req.BusinessUnitID, err)
		}
	}

	result := calc.Calculate(calc.CalcInput{
		Spec:      *spec,
		NetLength: req.NetLengthFt,
		Lines:     lines,
		Gates:     req.Gates,
		Concrete:  concrete,
		Rates:     rates,
	})

	pr := &PreviewResult{
		Result:        result,
		MaterialTotal: result.MaterialTotal(),
		LaborTotal:    result.LaborTotal(),
	}
	pr.Total = pr.MaterialTotal + pr.LaborTotal
	if req.NetLengthFt > 0 {
		pr.CostPerFoot = pr.Total / req.NetLengthFt
	}
	return pr, nil
}

// buildSpec 把请求组装成带类型判别的规格值对象
func (s *CalculatorService) buildSpec(ctx context.Context, req *PreviewRequest) (*calc.FenceSpec, error) {
	postType := calc.PostType(req.PostType)
	if postType == "" {
		postType = calc.PostTypeWood
	}

	spec := &calc.FenceSpec{
		Type:     calc.FenceType(req.FenceType),
		HeightFt: req.HeightFt,
		PostType: postType,
		Post:     s.resolve(ctx, req.Materials.Post),
	}

	switch spec.Type {
	case calc.FenceTypeWoodVertical:
		spec.WoodVertical = &calc.WoodVerticalSpec{
			Style:  req.Style,
			Rails:  req.RailCount,
			Picket: s.resolve(ctx, req.Materials.Picket),
			Rail:   s.resolve(ctx, req.Materials.Rail),
			Cap:    s.resolve(ctx, req.Materials.Cap),
			Trim:   s.resolve(ctx, req.Materials.Trim),
		}
	case calc.FenceTypeWoodHorizontal:
		spec.WoodHorizontal = &calc.WoodHorizontalSpec{
			Style:  req.Style,
			Board:  s.resolve(ctx, req.Materials.Board),
			Nailer: s.resolve(ctx, req.Materials.Nailer),
			Cap:    s.resolve(ctx, req.Materials.Cap),
		}
	case calc.FenceTypeIron:
		spec.Iron = &calc.IronSpec{
			Style:         req.Style,
			RailsPerPanel: req.RailsPerPanel,
			Panel:         s.resolve(ctx, req.Materials.Panel),
			Bracket:       s.resolve(ctx, req.Materials.Bracket),
			PostCap:       s.resolve(ctx, req.Materials.PostCap),
		}
	default:
		return nil, fmt.Errorf("unknown fence type: %s", req.FenceType)
	}

	return spec, nil
}

// resolve SKU→物料快照。查不到返回nil，由计算器记入 Missing。
func (s *CalculatorService) resolve(ctx context.Context, sku string) *calc.MaterialRef {
	if sku == "" {
		return nil
	}
	m, err := s.materialRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil
	}
	return m.Ref()
}

// concreteRefs 混凝土三件套按固定SKU解析
func (s *CalculatorService) concreteRefs(ctx context.Context) (calc.ConcreteRefs, error) {
	return calc.ConcreteRefs{
		SandGravel: s.resolve(ctx, calc.SKUSandGravelBag),
		Portland:   s.resolve(ctx, calc.SKUPortlandBag),
		Quickrock:  s.resolve(ctx, calc.SKUQuickrockBag),
	}, nil
}
