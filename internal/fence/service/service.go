package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Material   *MaterialService
	Labor      *LaborService
	Calculator *CalculatorService
	Product    *ProductService
	Recalc     *RecalcService
	Project    *ProjectService
	Bundle     *BundleService
	Export     *ExportService
}

// NewServices 创建服务集合。rdb/minioClient 允许为nil（对应能力降级）。
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, minioClient *minio.Client, exportBucket string) *Services {
	cache := NewCostCache(rdb)
	calculator := NewCalculatorService(repos.Material, repos.Labor)
	project := NewProjectService(repos.Project, repos.Yard, calculator, db)

	return &Services{
		Material:   NewMaterialService(repos.Material),
		Labor:      NewLaborService(repos.Labor),
		Calculator: calculator,
		Product:    NewProductService(repos.Product, repos.Material, cache),
		Recalc:     NewRecalcService(repos.Product, repos.Material, repos.Labor, cache),
		Project:    project,
		Bundle:     NewBundleService(repos.Project, db),
		Export:     NewExportService(repos.Project, minioClient, exportBucket),
	}
}

// newID 实体主键，32位
func newID() string {
	return uuid.New().String()[:32]
}

// newCode 带日期前缀的业务编码
func newCode(prefix string) string {
	now := time.Now()
	return fmt.Sprintf("%s-%s%04d", prefix, now.Format("20060102"), now.UnixNano()%10000)
}
