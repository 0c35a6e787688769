package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	Material *MaterialRepository
	Labor    *LaborRepository
	Product  *ProductRepository
	Project  *ProjectRepository
	Yard     *YardRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Material: NewMaterialRepository(db),
		Labor:    NewLaborRepository(db),
		Product:  NewProductRepository(db),
		Project:  NewProjectRepository(db),
		Yard:     NewYardRepository(db),
	}
}
