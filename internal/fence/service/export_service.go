package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
)

// ExportService 项目BOM导出。生成Excel工作簿，minioClient 配置时
// 同时归档一份到对象存储（归档失败不影响下载）。
type ExportService struct {
	projectRepo *repository.ProjectRepository
	minioClient *minio.Client
	bucket      string
}

func NewExportService(projectRepo *repository.ProjectRepository, minioClient *minio.Client, bucket string) *ExportService {
	return &ExportService{projectRepo: projectRepo, minioClient: minioClient, bucket: bucket}
}

// ExportResult 导出结果
type ExportResult struct {
	FileName    string `json:"file_name"`
	Content     []byte `json:"-"`
	ArchivePath string `json:"archive_path,omitempty"`
}

// ExportProjectBOM 导出单个项目的物料/人工清单
func (s *ExportService) ExportProjectBOM(ctx context.Context, projectID string) (*ExportResult, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "BOM"
	f.SetSheetName("Sheet1", sheet)

	// 项目头
	headRows := [][]interface{}{
		{"Project Code", project.Code},
		{"Project Name", project.Name},
		{"Customer", project.CustomerName},
		{"Status", project.Status},
		{"Fence Type", project.FenceType},
		{"Net Length (ft)", project.NetLengthFt},
		{"Lines", project.Lines},
		{"Gates", project.Gates},
	}
	for i, row := range headRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write header row: %w", err)
		}
	}

	rowIdx := len(headRows) + 2

	// 物料行
	rowIdx, err = s.writeMaterialSection(f, sheet, rowIdx, project.MaterialLines)
	if err != nil {
		return nil, err
	}

	rowIdx += 1

	// 人工行
	rowIdx, err = s.writeLaborSection(f, sheet, rowIdx, project.LaborLines)
	if err != nil {
		return nil, err
	}

	// 合计
	rowIdx += 1
	totals := [][]interface{}{
		{"Material Cost", project.MaterialCost},
		{"Labor Cost", project.LaborCost},
		{"Manual Adjustment", project.ManualAdjustment},
		{"Total", project.TotalCost()},
		{"Cost / ft", project.CostPerFoot},
	}
	for i, row := range totals {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+i)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write totals row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	result := &ExportResult{
		FileName: fmt.Sprintf("bom_%s_%s.xlsx", project.Code, time.Now().Format("20060102_150405")),
		Content:  buf.Bytes(),
	}
	result.ArchivePath = s.archive(ctx, result.FileName, result.Content)
	return result, nil
}

func (s *ExportService) writeMaterialSection(f *excelize.File, sheet string, rowIdx int, lines []entity.ProjectMaterialLine) (int, error) {
	header := []interface{}{"Material SKU", "Name", "Calculated Qty", "Manual Qty", "Final Qty", "Unit Cost", "Extended Cost"}
	cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return rowIdx, fmt.Errorf("write material header: %w", err)
	}
	rowIdx++

	for _, l := range lines {
		manual := interface{}("")
		if l.ManualQuantity != nil {
			manual = *l.ManualQuantity
		}
		row := []interface{}{l.MaterialSKU, l.Name, l.CalculatedQuantity, manual, l.FinalQuantity, l.UnitCost, l.ExtendedCost}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return rowIdx, fmt.Errorf("write material row %s: %w", l.MaterialSKU, err)
		}
		rowIdx++
	}
	return rowIdx, nil
}

func (s *ExportService) writeLaborSection(f *excelize.File, sheet string, rowIdx int, lines []entity.ProjectLaborLine) (int, error) {
	header := []interface{}{"Labor Code", "Description", "Calculated Qty", "Manual Qty", "Final Qty", "Rate", "Extended Cost"}
	cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return rowIdx, fmt.Errorf("write labor header: %w", err)
	}
	rowIdx++

	for _, l := range lines {
		manual := interface{}("")
		if l.ManualQuantity != nil {
			manual = *l.ManualQuantity
		}
		row := []interface{}{l.LaborCode, l.Description, l.CalculatedQuantity, manual, l.FinalQuantity, l.Rate, l.ExtendedCost}
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return rowIdx, fmt.Errorf("write labor row %s: %w", l.LaborCode, err)
		}
		rowIdx++
	}
	return rowIdx, nil
}

// archive 上传到对象存储。未配置或失败时返回空路径。
func (s *ExportService) archive(ctx context.Context, fileName string, content []byte) string {
	if s.minioClient == nil || s.bucket == "" {
		return ""
	}
	objectName := fmt.Sprintf("exports/%s/%s", time.Now().Format("2006/01"), fileName)
	_, err := s.minioClient.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"})
	if err != nil {
		return ""
	}
	return objectName
}
