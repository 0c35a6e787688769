package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"gorm.io/gorm"
)

// BundleService 捆组协调。
// 捆组不变量：父记录要么有>=2个子项目要么不存在；父记录自身
// BundleID 恒为 nil；子项目被单独操作时先摘除，剩余子项目不足2个
// 则整个捆组自动解散。所有维护动作都在事务里完成。
type BundleService struct {
	projectRepo *repository.ProjectRepository
	db          *gorm.DB
}

func NewBundleService(projectRepo *repository.ProjectRepository, db *gorm.DB) *BundleService {
	return &BundleService{projectRepo: projectRepo, db: db}
}

// CreateBundleRequest 建捆请求
type CreateBundleRequest struct {
	Name       string   `json:"name" binding:"required"`
	ProjectIDs []string `json:"project_ids" binding:"required,min=2"`
}

// CreateBundle 把若干项目捆成一组。全部校验通过才落库：
// 子项目必须存在、未归档、未入其他捆组、本身不是捆组父记录，
// 且同属一个库场、预计提货日期一致。
func (s *BundleService) CreateBundle(ctx context.Context, req *CreateBundleRequest, operator string) (*entity.BOMProject, error) {
	if len(req.ProjectIDs) < 2 {
		return nil, fmt.Errorf("bundle requires at least 2 projects, got %d", len(req.ProjectIDs))
	}

	seen := make(map[string]bool, len(req.ProjectIDs))
	children := make([]*entity.BOMProject, 0, len(req.ProjectIDs))
	yardID := ""
	for _, id := range req.ProjectIDs {
		if seen[id] {
			return nil, fmt.Errorf("duplicate project in bundle request: %s", id)
		}
		seen[id] = true

		p, err := s.projectRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("project %s not found: %w", id, err)
		}
		if p.IsBundle {
			return nil, fmt.Errorf("project %s is itself a bundle", p.Code)
		}
		if p.IsArchived {
			return nil, fmt.Errorf("project %s is archived", p.Code)
		}
		if p.BundleID != nil {
			return nil, fmt.Errorf("project %s already belongs to bundle %s", p.Code, *p.BundleID)
		}
		// 以第一个子项目为基准比较，空库场也参与比较
		if len(children) == 0 {
			yardID = p.YardID
		} else if p.YardID != yardID {
			return nil, fmt.Errorf("project %s is in a different yard", p.Code)
		}
		if !samePickupDate(children, p) {
			return nil, fmt.Errorf("project %s has a different expected pickup date", p.Code)
		}
		children = append(children, p)
	}

	now := time.Now()
	bundle := &entity.BOMProject{
		ID:                 newID(),
		Code:               newCode("BDL"),
		Name:               req.Name,
		Status:             children[0].Status,
		IsBundle:           true,
		YardID:             yardID,
		CrewID:             children[0].CrewID,
		ExpectedPickupDate: children[0].ExpectedPickupDate,
		CreatedBy:          operator,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bundle).Error; err != nil {
			return fmt.Errorf("create bundle: %w", err)
		}
		for _, child := range children {
			if err := tx.Model(&entity.BOMProject{}).
				Where("id = ?", child.ID).
				Update("bundle_id", bundle.ID).Error; err != nil {
				return fmt.Errorf("attach project %s: %w", child.Code, err)
			}
		}
		return tx.Create(&entity.OperationLog{
			ID:         newID(),
			EntityType: "bundle",
			EntityID:   bundle.ID,
			Action:     "create_bundle",
			ToStatus:   bundle.Status,
			OperatorID: operator,
			CreatedAt:  now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.projectRepo.FindByID(ctx, bundle.ID)
}

// GetBundle 捆组详情（带子项目）
func (s *BundleService) GetBundle(ctx context.Context, id string) (*entity.BOMProject, []entity.BOMProject, error) {
	bundle, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("bundle not found: %w", err)
	}
	if !bundle.IsBundle {
		return nil, nil, fmt.Errorf("project %s is not a bundle", bundle.Code)
	}
	children, err := s.projectRepo.ListChildren(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return bundle, children, nil
}

// AdvanceBundle 整捆推进一步：状态只写在父记录上，子项目跟随父记录。
func (s *BundleService) AdvanceBundle(ctx context.Context, id, operator string) (*entity.BOMProject, error) {
	bundle, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("bundle not found: %w", err)
	}
	if !bundle.IsBundle {
		return nil, fmt.Errorf("project %s is not a bundle", bundle.Code)
	}
	next := entity.NextStatus(bundle.Status)
	if next == "" {
		return nil, fmt.Errorf("bundle in status %s cannot be advanced", bundle.Status)
	}

	fromStatus := bundle.Status
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bundle.Status = next
		bundle.UpdatedAt = time.Now()
		if err := tx.Save(bundle).Error; err != nil {
			return fmt.Errorf("update bundle status: %w", err)
		}
		return tx.Create(&entity.OperationLog{
			ID:         newID(),
			EntityType: "bundle",
			EntityID:   bundle.ID,
			Action:     "advance",
			FromStatus: fromStatus,
			ToStatus:   next,
			OperatorID: operator,
			CreatedAt:  time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return bundle, nil
}

// DetachProject 把单个子项目从捆组里摘出来。剩余子项目不足2个
// 时捆组自动解散。
func (s *BundleService) DetachProject(ctx context.Context, projectID, operator string) (*entity.BOMProject, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}
	if project.BundleID == nil {
		return nil, fmt.Errorf("project %s is not in a bundle", project.Code)
	}

	bundleID := *project.BundleID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := detachAndMaybeDissolve(tx, project); err != nil {
			return err
		}
		if err := tx.Save(project).Error; err != nil {
			return fmt.Errorf("detach project: %w", err)
		}
		return tx.Create(&entity.OperationLog{
			ID:         newID(),
			EntityType: "bundle",
			EntityID:   bundleID,
			Action:     "detach_project",
			OperatorID: operator,
			Notes:      project.Code,
			CreatedAt:  time.Now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Unbundle 解散整个捆组：所有子项目摘除，父记录删除。
// 子项目保持各自当前状态不变。
func (s *BundleService) Unbundle(ctx context.Context, bundleID, operator string) error {
	bundle, err := s.projectRepo.FindByID(ctx, bundleID)
	if err != nil {
		return fmt.Errorf("bundle not found: %w", err)
	}
	if !bundle.IsBundle {
		return fmt.Errorf("project %s is not a bundle", bundle.Code)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.BOMProject{}).
			Where("bundle_id = ?", bundleID).
			Update("bundle_id", nil).Error; err != nil {
			return fmt.Errorf("detach children: %w", err)
		}
		if err := tx.Delete(&entity.BOMProject{}, "id = ?", bundleID).Error; err != nil {
			return fmt.Errorf("delete bundle: %w", err)
		}
		return tx.Create(&entity.OperationLog{
			ID:         newID(),
			EntityType: "bundle",
			EntityID:   bundleID,
			Action:     "unbundle",
			OperatorID: operator,
			CreatedAt:  time.Now(),
		}).Error
	})
}

// samePickupDate 候选子项目的预计提货日期必须与已收集的一致（都为空也算一致）
func samePickupDate(collected []*entity.BOMProject, p *entity.BOMProject) bool {
	if len(collected) == 0 {
		return true
	}
	a, b := collected[0].ExpectedPickupDate, p.ExpectedPickupDate
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// detachAndMaybeDissolve 在调用方事务内把项目摘出捆组，并在剩余
// 子项目不足2个时解散捆组。只修改 project 的内存字段，项目行本身
// 由调用方落库。
func detachAndMaybeDissolve(tx *gorm.DB, project *entity.BOMProject) error {
	if project.BundleID == nil {
		return nil
	}
	bundleID := *project.BundleID
	project.BundleID = nil

	var remaining int64
	if err := tx.Model(&entity.BOMProject{}).
		Where("bundle_id = ? AND id <> ?", bundleID, project.ID).
		Count(&remaining).Error; err != nil {
		return fmt.Errorf("count bundle siblings: %w", err)
	}
	if remaining >= 2 {
		return nil
	}

	// 剩余不足2个，捆组失去意义：摘除余下子项目并删掉父记录
	if err := tx.Model(&entity.BOMProject{}).
		Where("bundle_id = ?", bundleID).
		Update("bundle_id", nil).Error; err != nil {
		return fmt.Errorf("dissolve bundle %s: %w", bundleID, err)
	}
	if err := tx.Delete(&entity.BOMProject{}, "id = ?", bundleID).Error; err != nil {
		return fmt.Errorf("delete dissolved bundle %s: %w", bundleID, err)
	}
	return tx.Create(&entity.OperationLog{
		ID:         newID(),
		EntityType: "bundle",
		EntityID:   bundleID,
		Action:     "auto_dissolve",
		CreatedAt:  time.Now(),
	}).Error
}
