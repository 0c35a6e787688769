package repository

import (
	"context"
	"errors"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 按ID查找项目（带行项与货位）
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.BOMProject, error) {
	var p entity.BOMProject
	err := r.db.WithContext(ctx).
		Preload("MaterialLines").
		Preload("LaborLines").
		Preload("YardSpot").
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List 项目列表。filters 支持 status / yard_id / is_bundle / include_archived。
func (r *ProjectRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.BOMProject, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.BOMProject{})

	if status, _ := filters["status"].(string); status != "" {
		query = query.Where("status = ?", status)
	}
	if yardID, _ := filters["yard_id"].(string); yardID != "" {
		query = query.Where("yard_id = ?", yardID)
	}
	if isBundle, ok := filters["is_bundle"].(bool); ok {
		query = query.Where("is_bundle = ?", isBundle)
	}
	if include, _ := filters["include_archived"].(bool); !include {
		query = query.Where("is_archived = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entity.BOMProject
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// Update 保存项目
func (r *ProjectRepository) Update(ctx context.Context, p *entity.BOMProject) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// ListChildren 捆组的子项目
func (r *ProjectRepository) ListChildren(ctx context.Context, bundleID string) ([]entity.BOMProject, error) {
	var items []entity.BOMProject
	err := r.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

// ========== 行项 ==========

// FindMaterialLine 按ID查找物料行
func (r *ProjectRepository) FindMaterialLine(ctx context.Context, id string) (*entity.ProjectMaterialLine, error) {
	var line entity.ProjectMaterialLine
	err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLaborLine 按ID查找人工行
func (r *ProjectRepository) FindLaborLine(ctx context.Context, id string) (*entity.ProjectLaborLine, error) {
	var line entity.ProjectLaborLine
	err := r.db.WithContext(ctx).First(&line, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ========== 审计日志 ==========

// CreateOperationLog 写入操作日志
func (r *ProjectRepository) CreateOperationLog(ctx context.Context, log *entity.OperationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListOperationLogs 某实体的操作日志
func (r *ProjectRepository) ListOperationLogs(ctx context.Context, entityType, entityID string) ([]entity.OperationLog, error) {
	var logs []entity.OperationLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
