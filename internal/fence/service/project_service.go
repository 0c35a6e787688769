package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/sse"
	"gorm.io/gorm"
)

// ProjectService 项目履约状态机。
// 状态写入及其连带动作（货位分配/释放、捆组摘除、审计日志）
// 在同一个事务里完成；不做进程内锁，并发冲突按库内行原子性
// 后写覆盖处理。
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	yardRepo    *repository.YardRepository
	calculator  *CalculatorService
	db          *gorm.DB
}

func NewProjectService(projectRepo *repository.ProjectRepository, yardRepo *repository.YardRepository, calculator *CalculatorService, db *gorm.DB) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, yardRepo: yardRepo, calculator: calculator, db: db}
}

// CreateProjectRequest 报价落库请求
type CreateProjectRequest struct {
	Name               string          `json:"name" binding:"required"`
	CustomerName       string          `json:"customer_name"`
	BusinessUnitID     string          `json:"business_unit_id"`
	YardID             string          `json:"yard_id"`
	CrewID             string          `json:"crew_id"`
	ExpectedPickupDate *time.Time      `json:"expected_pickup_date"`
	Quote              *PreviewRequest `json:"quote" binding:"required"`
}

// ProjectListResult 项目列表结果
type ProjectListResult struct {
	Items      []entity.BOMProject `json:"items"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// CreateFromQuote 把一次报价计算落成项目及其物料/人工行。
// 行项的 final_quantity / extended_cost 在写入时即按派生规则维护。
func (s *ProjectService) CreateFromQuote(ctx context.Context, req *CreateProjectRequest, createdBy string) (*entity.BOMProject, error) {
	req.Quote.BusinessUnitID = firstNonEmpty(req.Quote.BusinessUnitID, req.BusinessUnitID)
	preview, err := s.calculator.Preview(ctx, req.Quote)
	if err != nil {
		return nil, fmt.Errorf("quote calculation failed: %w", err)
	}

	now := time.Now()
	project := &entity.BOMProject{
		ID:                 newID(),
		Code:               newCode("PRJ"),
		Name:               req.Name,
		CustomerName:       req.CustomerName,
		Status:             entity.ProjectStatusDraft,
		BusinessUnitID:     req.BusinessUnitID,
		YardID:             req.YardID,
		CrewID:             req.CrewID,
		ExpectedPickupDate: req.ExpectedPickupDate,
		FenceType:          req.Quote.FenceType,
		NetLengthFt:        req.Quote.NetLengthFt,
		Lines:              maxInt(req.Quote.Lines, 1),
		Gates:              req.Quote.Gates,
		CreatedBy:          createdBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		for _, m := range preview.Result.Materials {
			line := &entity.ProjectMaterialLine{
				ID:                 newID(),
				ProjectID:          project.ID,
				MaterialSKU:        m.SKU,
				Name:               m.Name,
				CalculatedQuantity: m.Quantity,
				UnitCost:           m.UnitCost,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			line.RecalcDerived()
			if err := tx.Create(line).Error; err != nil {
				return fmt.Errorf("create material line %s: %w", m.SKU, err)
			}
		}
		for _, l := range preview.Result.Labor {
			line := &entity.ProjectLaborLine{
				ID:                 newID(),
				ProjectID:          project.ID,
				LaborCode:          l.Code,
				Description:        l.Description,
				CalculatedQuantity: l.Quantity,
				Rate:               l.Rate,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			line.RecalcDerived()
			if err := tx.Create(line).Error; err != nil {
				return fmt.Errorf("create labor line %s: %w", l.Code, err)
			}
		}
		return s.recalcTotals(tx, project)
	})
	if err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, project.ID)
}

// GetProject 项目详情
func (s *ProjectService) GetProject(ctx context.Context, id string) (*entity.BOMProject, error) {
	return s.projectRepo.FindByID(ctx, id)
}

// ListProjects 项目列表
func (s *ProjectService) ListProjects(ctx context.Context, page, pageSize int, filters map[string]interface{}) (*ProjectListResult, error) {
	items, total, err := s.projectRepo.List(ctx, page, pageSize, filters)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ProjectListResult{
		Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages,
	}, nil
}

// ========== 状态机 ==========

// Advance 正向推进一步。不允许跳步；跳转走 SetStatus（管理菜单）。
func (s *ProjectService) Advance(ctx context.Context, id, operator string) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if project.IsArchived {
		return nil, fmt.Errorf("archived project cannot be advanced")
	}
	next := entity.NextStatus(project.Status)
	if next == "" {
		return nil, fmt.Errorf("project in status %s cannot be advanced", project.Status)
	}
	if err := s.applyStatus(ctx, project, next, "advance", operator, nil); err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, id)
}

// SetStatus 直接指定状态（管理操作，允许任意跳转）
func (s *ProjectService) SetStatus(ctx context.Context, id, status, operator string) (*entity.BOMProject, error) {
	if !entity.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if project.Status == status {
		return project, nil
	}
	if err := s.applyStatus(ctx, project, status, "set_status", operator, nil); err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, id)
}

// CompletePartialPickup 部分提货完成：必须带非空说明，
// 状态、标志、说明在同一事务里原子写入。
func (s *ProjectService) CompletePartialPickup(ctx context.Context, id, notes, operator string) (*entity.BOMProject, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, fmt.Errorf("partial pickup requires non-empty notes")
	}
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if project.Status != entity.ProjectStatusLoaded {
		return nil, fmt.Errorf("partial pickup completion requires loaded status, got %s", project.Status)
	}
	mutate := func(p *entity.BOMProject) {
		p.PartialPickup = true
		p.PartialPickupNotes = notes
	}
	if err := s.applyStatus(ctx, project, entity.ProjectStatusCompleted, "complete_partial_pickup", operator, mutate); err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, id)
}

// ClearPartialPickup 余料提走后清除部分提货标志，状态不变
func (s *ProjectService) ClearPartialPickup(ctx context.Context, id, operator string) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if !project.PartialPickup {
		return nil, fmt.Errorf("project has no partial pickup to clear")
	}
	project.PartialPickup = false
	project.PartialPickupNotes = ""
	project.UpdatedAt = time.Now()
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("clear partial pickup: %w", err)
	}
	s.log(ctx, project.ID, "clear_partial_pickup", project.Status, project.Status, operator, "")
	return project, nil
}

// RevertToLoaded 完成状态回退到已装车。管理修正操作，不属于正向流程。
func (s *ProjectService) RevertToLoaded(ctx context.Context, id, operator string) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if project.Status != entity.ProjectStatusCompleted {
		return nil, fmt.Errorf("only completed projects can be reverted to loaded, got %s", project.Status)
	}
	mutate := func(p *entity.BOMProject) {
		// 误录入回退时连带清掉部分提货痕迹
		p.PartialPickup = false
		p.PartialPickupNotes = ""
	}
	if err := s.applyStatus(ctx, project, entity.ProjectStatusLoaded, "revert_to_loaded", operator, mutate); err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, id)
}

// Cancel 取消项目
func (s *ProjectService) Cancel(ctx context.Context, id, operator string) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if project.Status == entity.ProjectStatusCompleted {
		return nil, fmt.Errorf("completed project cannot be cancelled")
	}
	if err := s.applyStatus(ctx, project, entity.ProjectStatusCancelled, "cancel", operator, nil); err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, id)
}

// Archive 归档。与状态正交，任何状态都可归档/恢复。
func (s *ProjectService) Archive(ctx context.Context, id, operator string, archived bool) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	project.IsArchived = archived
	project.UpdatedAt = time.Now()
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("archive project: %w", err)
	}
	action := "archive"
	if !archived {
		action = "restore"
	}
	s.log(ctx, project.ID, action, project.Status, project.Status, operator, "")
	return project, nil
}

// applyStatus 状态写入事务：货位分配/释放、捆组摘除、日志一体完成
func (s *ProjectService) applyStatus(ctx context.Context, project *entity.BOMProject, toStatus, action, operator string, mutate func(*entity.BOMProject)) error {
	fromStatus := project.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 进入staged必须拿到空闲货位，拿不到整个事务回滚
		if toStatus == entity.ProjectStatusStaged && project.YardSpotID == nil {
			spot, err := s.yardRepo.FindFreeSpot(tx, project.YardID)
			if err != nil {
				return fmt.Errorf("no free yard spot in yard %s: %w", project.YardID, err)
			}
			spot.OccupiedByProjectID = &project.ID
			spot.UpdatedAt = time.Now()
			if err := tx.Save(spot).Error; err != nil {
				return fmt.Errorf("assign yard spot: %w", err)
			}
			project.YardSpotID = &spot.ID
		}

		// 完成/取消释放货位；管理跳回staged之前的状态同样释放，
		// 否则货位会被不在场的项目一直占着
		releaseSpot := toStatus == entity.ProjectStatusCompleted || toStatus == entity.ProjectStatusCancelled
		if !releaseSpot && project.YardSpotID != nil {
			if idx := entity.StatusIndex(toStatus); idx >= 0 && idx < entity.StatusIndex(entity.ProjectStatusStaged) {
				releaseSpot = true
			}
		}
		if releaseSpot {
			if err := s.yardRepo.ReleaseSpot(tx, project.ID); err != nil {
				return fmt.Errorf("release yard spot: %w", err)
			}
			project.YardSpotID = nil
			project.YardSpot = nil
		}

		project.Status = toStatus
		if mutate != nil {
			mutate(project)
		}
		project.UpdatedAt = time.Now()

		// 单个子项目脱离捆组整体被操作时，先摘除再视情况解散捆组
		if project.BundleID != nil {
			if err := detachAndMaybeDissolve(tx, project); err != nil {
				return err
			}
		}

		if err := tx.Save(project).Error; err != nil {
			return fmt.Errorf("update project status: %w", err)
		}

		return tx.Create(&entity.OperationLog{
			ID:         newID(),
			EntityType: "bom_project",
			EntityID:   project.ID,
			Action:     action,
			FromStatus: fromStatus,
			ToStatus:   toStatus,
			OperatorID: operator,
			CreatedAt:  time.Now(),
		}).Error
	})
	if err == nil {
		sse.PublishProjectStatus(project.ID, fromStatus, toStatus)
	}
	return err
}

// log 非事务路径的操作日志，写失败不影响主流程
func (s *ProjectService) log(ctx context.Context, projectID, action, from, to, operator, notes string) {
	_ = s.projectRepo.CreateOperationLog(ctx, &entity.OperationLog{
		ID:         newID(),
		EntityType: "bom_project",
		EntityID:   projectID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		OperatorID: operator,
		Notes:      notes,
		CreatedAt:  time.Now(),
	})
}

// ========== 行项覆盖与合计 ==========

// SetMaterialManualQuantity 设置/清除物料行手工数量并维护派生字段
func (s *ProjectService) SetMaterialManualQuantity(ctx context.Context, lineID string, qty *float64) (*entity.ProjectMaterialLine, error) {
	line, err := s.projectRepo.FindMaterialLine(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("material line not found: %w", err)
	}
	line.ManualQuantity = qty
	line.RecalcDerived()
	line.UpdatedAt = time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(line).Error; err != nil {
			return fmt.Errorf("update material line: %w", err)
		}
		project, err := s.projectRepo.FindByID(ctx, line.ProjectID)
		if err != nil {
			return err
		}
		return s.recalcTotals(tx, project)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// SetLaborManualQuantity 设置/清除人工行手工数量并维护派生字段
func (s *ProjectService) SetLaborManualQuantity(ctx context.Context, lineID string, qty *float64) (*entity.ProjectLaborLine, error) {
	line, err := s.projectRepo.FindLaborLine(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("labor line not found: %w", err)
	}
	line.ManualQuantity = qty
	line.RecalcDerived()
	line.UpdatedAt = time.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(line).Error; err != nil {
			return fmt.Errorf("update labor line: %w", err)
		}
		project, err := s.projectRepo.FindByID(ctx, line.ProjectID)
		if err != nil {
			return err
		}
		return s.recalcTotals(tx, project)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// SetManualAdjustment 设置项目级手工调整额
func (s *ProjectService) SetManualAdjustment(ctx context.Context, id string, amount float64) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	project.ManualAdjustment = amount
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.recalcTotals(tx, project)
	})
	if err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, id)
}

// recalcTotals 行项写入后重算项目合计字段
func (s *ProjectService) recalcTotals(tx *gorm.DB, project *entity.BOMProject) error {
	var materialCost, laborCost float64
	if err := tx.Model(&entity.ProjectMaterialLine{}).
		Where("project_id = ?", project.ID).
		Select("COALESCE(SUM(extended_cost), 0)").
		Scan(&materialCost).Error; err != nil {
		return fmt.Errorf("sum material lines: %w", err)
	}
	if err := tx.Model(&entity.ProjectLaborLine{}).
		Where("project_id = ?", project.ID).
		Select("COALESCE(SUM(extended_cost), 0)").
		Scan(&laborCost).Error; err != nil {
		return fmt.Errorf("sum labor lines: %w", err)
	}

	project.MaterialCost = materialCost
	project.LaborCost = laborCost
	if project.NetLengthFt > 0 {
		project.CostPerFoot = project.TotalCost() / project.NetLengthFt
	}
	project.UpdatedAt = time.Now()
	return tx.Save(project).Error
}

// ListOperationLogs 项目操作日志
func (s *ProjectService) ListOperationLogs(ctx context.Context, projectID string) ([]entity.OperationLog, error) {
	return s.projectRepo.ListOperationLogs(ctx, "bom_project", projectID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
