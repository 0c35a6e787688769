package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/calc"
	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
)

// 标准成本基准段：100英尺单段无门
const (
	referenceLengthFt = 100.0
	referenceLines    = 1
	referenceGates    = 0
)

// RecalcService 标准成本批量重算。
// 两阶段：先重算全部SKU的标准物料成本，再按业务单元重算标准人工成本。
// 单个SKU失败只记录错误不中断，失败的SKU不回写、保留旧值。
type RecalcService struct {
	productRepo  *repository.ProductRepository
	materialRepo *repository.MaterialRepository
	laborRepo    *repository.LaborRepository
	cache        *CostCache
}

func NewRecalcService(productRepo *repository.ProductRepository, materialRepo *repository.MaterialRepository, laborRepo *repository.LaborRepository, cache *CostCache) *RecalcService {
	return &RecalcService{productRepo: productRepo, materialRepo: materialRepo, laborRepo: laborRepo, cache: cache}
}

// ProgressFunc 重算进度回调，done/total 为已处理与总数
type ProgressFunc func(phase string, done, total int)

// RecalcSummary 一次批量重算的结果汇总
type RecalcSummary struct {
	MaterialProcessed int       `json:"material_processed"`
	MaterialUpdated   int       `json:"material_updated"`
	LaborProcessed    int       `json:"labor_processed"`
	LaborUpdated      int       `json:"labor_updated"`
	Errors            []string  `json:"errors"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// RecalculateAll 全量重算。ctx 取消时在条目之间停下，
// 已写入的结果保留。progress 允许为nil。
func (s *RecalcService) RecalculateAll(ctx context.Context, progress ProgressFunc) (*RecalcSummary, error) {
	summary := &RecalcSummary{StartedAt: time.Now()}

	if err := s.recalcMaterials(ctx, summary, progress); err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}
	if err := s.recalcLabor(ctx, summary, progress); err != nil {
		summary.FinishedAt = time.Now()
		return summary, err
	}

	summary.FinishedAt = time.Now()
	return summary, nil
}

// skuJob 单个重算条目：SKU + 计算规格 + 回写表
type skuJob struct {
	skuCode   string
	fenceType string
	table     string
	spec      calc.FenceSpec
}

// collectJobs 拉取三张目录表的全部在售SKU
func (s *RecalcService) collectJobs(ctx context.Context) ([]skuJob, error) {
	var jobs []skuJob

	wv, err := s.productRepo.ListWoodVertical(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wood vertical products: %w", err)
	}
	for i := range wv {
		jobs = append(jobs, skuJob{
			skuCode:   wv[i].SKUCode,
			fenceType: string(calc.FenceTypeWoodVertical),
			table:     entity.WoodVerticalProduct{}.TableName(),
			spec:      wv[i].Spec(),
		})
	}

	wh, err := s.productRepo.ListWoodHorizontal(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wood horizontal products: %w", err)
	}
	for i := range wh {
		jobs = append(jobs, skuJob{
			skuCode:   wh[i].SKUCode,
			fenceType: string(calc.FenceTypeWoodHorizontal),
			table:     entity.WoodHorizontalProduct{}.TableName(),
			spec:      wh[i].Spec(),
		})
	}

	iron, err := s.productRepo.ListIron(ctx)
	if err != nil {
		return nil, fmt.Errorf("list iron products: %w", err)
	}
	for i := range iron {
		jobs = append(jobs, skuJob{
			skuCode:   iron[i].SKUCode,
			fenceType: string(calc.FenceTypeIron),
			table:     entity.IronProduct{}.TableName(),
			spec:      iron[i].Spec(),
		})
	}

	return jobs, nil
}

// recalcMaterials 阶段一：标准物料成本
func (s *RecalcService) recalcMaterials(ctx context.Context, summary *RecalcSummary, progress ProgressFunc) error {
	jobs, err := s.collectJobs(ctx)
	if err != nil {
		return err
	}
	concrete := s.concreteRefs(ctx)

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		summary.MaterialProcessed++

		result := calc.Calculate(calc.CalcInput{
			Spec:      job.spec,
			NetLength: referenceLengthFt,
			Lines:     referenceLines,
			Gates:     referenceGates,
			Concrete:  concrete,
		})
		if len(result.Missing) > 0 {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("sku %s: missing material references: %v", job.skuCode, result.Missing))
			continue
		}

		materialCost := result.MaterialTotal()
		costPerFoot := materialCost / referenceLengthFt
		if err := s.productRepo.UpdateStandardMaterialCost(ctx, job.table, job.skuCode, materialCost, costPerFoot, time.Now()); err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("sku %s: write standard cost: %v", job.skuCode, err))
			continue
		}
		s.cache.Invalidate(ctx, job.skuCode)
		summary.MaterialUpdated++

		if progress != nil {
			progress("materials", i+1, len(jobs))
		}
	}
	return nil
}

// recalcLabor 阶段二：SKU × 业务单元的标准人工成本
func (s *RecalcService) recalcLabor(ctx context.Context, summary *RecalcSummary, progress ProgressFunc) error {
	jobs, err := s.collectJobs(ctx)
	if err != nil {
		return err
	}
	units, err := s.laborRepo.ListBusinessUnits(ctx)
	if err != nil {
		return fmt.Errorf("list business units: %w", err)
	}

	total := len(jobs) * len(units)
	done := 0
	for _, unit := range units {
		rates, err := s.laborRepo.RateMap(ctx, unit.ID)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("unit %s: load rates: %v", unit.Code, err))
			done += len(jobs)
			continue
		}

		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			done++
			summary.LaborProcessed++

			result := calc.Calculate(calc.CalcInput{
				Spec:      job.spec,
				NetLength: referenceLengthFt,
				Lines:     referenceLines,
				Gates:     referenceGates,
				Rates:     rates,
			})

			row := &entity.ProductLaborCost{
				ID:                newID(),
				SKUCode:           job.skuCode,
				FenceType:         job.fenceType,
				BusinessUnitID:    unit.ID,
				StandardLaborCost: result.LaborTotal(),
				CalculatedAt:      time.Now(),
			}
			if err := s.productRepo.UpsertLaborCost(ctx, row); err != nil {
				summary.Errors = append(summary.Errors,
					fmt.Sprintf("sku %s unit %s: write labor cost: %v", job.skuCode, unit.Code, err))
				continue
			}
			summary.LaborUpdated++

			if progress != nil {
				progress("labor", done, total)
			}
		}
	}
	return nil
}

// concreteRefs 按固定SKU解析混凝土三件套
func (s *RecalcService) concreteRefs(ctx context.Context) calc.ConcreteRefs {
	resolve := func(sku string) *calc.MaterialRef {
		m, err := s.materialRepo.FindBySKU(ctx, sku)
		if err != nil {
			return nil
		}
		return m.Ref()
	}
	return calc.ConcreteRefs{
		SandGravel: resolve(calc.SKUSandGravelBag),
		Portland:   resolve(calc.SKUPortlandBag),
		Quickrock:  resolve(calc.SKUQuickrockBag),
	}
}
