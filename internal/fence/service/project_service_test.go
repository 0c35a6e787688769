package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/testutil"
	"gorm.io/gorm"
)

func setupProjectTest(t *testing.T) (*gorm.DB, *repository.Repositories, *ProjectService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	calculator := NewCalculatorService(repos.Material, repos.Labor)
	svc := NewProjectService(repos.Project, repos.Yard, calculator, db)
	return db, repos, svc
}

func seedWoodVerticalCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedMaterial(t, db, "PST-4X4-8", "4x4x8 Post", entity.MaterialCategoryPost, 12.50, 8, 3.5)
	testutil.SeedMaterial(t, db, "PKT-6FT-CDR", "6ft Cedar Picket", entity.MaterialCategoryPicket, 3.25, 6, 5.5)
	testutil.SeedMaterial(t, db, "RAL-2X4-8", "2x4x8 Rail", entity.MaterialCategoryRail, 4.10, 8, 3.5)
	testutil.SeedMaterial(t, db, "CON-SANDGRAVEL", "Sand & Gravel Bag", entity.MaterialCategoryConcrete, 5.20, 0, 0)
	testutil.SeedMaterial(t, db, "CON-PORTLAND", "Portland Cement Bag", entity.MaterialCategoryConcrete, 11.80, 0, 0)
	testutil.SeedMaterial(t, db, "CON-QUICKROCK", "Quickrock Bag", entity.MaterialCategoryConcrete, 7.40, 0, 0)
}

func woodVerticalQuote() *PreviewRequest {
	return &PreviewRequest{
		FenceType:   "wood_vertical",
		HeightFt:    6,
		Style:       "standard",
		PostType:    "WOOD",
		NetLengthFt: 100,
		Lines:       1,
		Gates:       0,
		Materials: PreviewMaterials{
			Post:   "PST-4X4-8",
			Picket: "PKT-6FT-CDR",
			Rail:   "RAL-2X4-8",
		},
	}
}

func TestCreateFromQuotePersistsDerivedFields(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	seedWoodVerticalCatalog(t, db)
	testutil.SeedYard(t, db, "yard-001", "Y1", 3)

	project, err := svc.CreateFromQuote(context.Background(), &CreateProjectRequest{
		Name:   "Smith backyard",
		YardID: "yard-001",
		Quote:  woodVerticalQuote(),
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateFromQuote failed: %v", err)
	}

	if project.Status != entity.ProjectStatusDraft {
		t.Fatalf("expected draft status, got %s", project.Status)
	}
	if len(project.MaterialLines) == 0 {
		t.Fatal("expected material lines to be persisted")
	}
	for _, line := range project.MaterialLines {
		if line.ManualQuantity != nil {
			t.Fatalf("fresh line %s should have no manual quantity", line.MaterialSKU)
		}
		want := line.FinalQuantity * line.UnitCost
		if line.ExtendedCost != want {
			t.Fatalf("line %s extended cost %v, want %v", line.MaterialSKU, line.ExtendedCost, want)
		}
	}
	if project.MaterialCost <= 0 {
		t.Fatalf("expected positive material cost, got %v", project.MaterialCost)
	}
	if project.CostPerFoot <= 0 {
		t.Fatalf("expected positive cost per foot, got %v", project.CostPerFoot)
	}
}

func TestManualQuantityOverrideAndClear(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	seedWoodVerticalCatalog(t, db)
	testutil.SeedYard(t, db, "yard-001", "Y1", 3)

	project, err := svc.CreateFromQuote(context.Background(), &CreateProjectRequest{
		Name:   "Override test",
		YardID: "yard-001",
		Quote:  woodVerticalQuote(),
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateFromQuote failed: %v", err)
	}

	line := project.MaterialLines[0]
	override := 99.0
	updated, err := svc.SetMaterialManualQuantity(context.Background(), line.ID, &override)
	if err != nil {
		t.Fatalf("SetMaterialManualQuantity failed: %v", err)
	}
	if updated.FinalQuantity != 99 {
		t.Fatalf("expected final quantity 99, got %v", updated.FinalQuantity)
	}
	if updated.ExtendedCost != 99*line.UnitCost {
		t.Fatalf("extended cost not recomputed: %v", updated.ExtendedCost)
	}

	// 清除覆盖后回到计算值
	cleared, err := svc.SetMaterialManualQuantity(context.Background(), line.ID, nil)
	if err != nil {
		t.Fatalf("clear manual quantity failed: %v", err)
	}
	if cleared.ManualQuantity != nil {
		t.Fatal("manual quantity should be nil after clear")
	}
	if cleared.FinalQuantity != line.FinalQuantity {
		t.Fatalf("expected final quantity back to %v, got %v", line.FinalQuantity, cleared.FinalQuantity)
	}

	// 项目合计跟着行项变化
	after, err := svc.GetProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if after.MaterialCost != project.MaterialCost {
		t.Fatalf("material cost should be restored, got %v want %v", after.MaterialCost, project.MaterialCost)
	}
}

func TestAdvanceWalksStatusChainOneStep(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 3)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusDraft)

	want := []string{
		entity.ProjectStatusReady,
		entity.ProjectStatusSentToYard,
		entity.ProjectStatusStaged,
		entity.ProjectStatusLoaded,
		entity.ProjectStatusCompleted,
	}
	for _, expected := range want {
		p, err := svc.Advance(context.Background(), "prj-001", "test-user-001")
		if err != nil {
			t.Fatalf("Advance to %s failed: %v", expected, err)
		}
		if p.Status != expected {
			t.Fatalf("expected status %s, got %s", expected, p.Status)
		}
	}

	// 终态不能再推进
	if _, err := svc.Advance(context.Background(), "prj-001", "test-user-001"); err == nil {
		t.Fatal("expected error advancing a completed project")
	}

	logs, err := svc.ListOperationLogs(context.Background(), "prj-001")
	if err != nil {
		t.Fatalf("ListOperationLogs failed: %v", err)
	}
	if len(logs) != len(want) {
		t.Fatalf("expected %d operation logs, got %d", len(want), len(logs))
	}
}

func TestStagedAssignsAndReleasesYardSpot(t *testing.T) {
	db, repos, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusSentToYard)
	testutil.SeedProject(t, db, "prj-002", "PRJ-T002", "yard-001", entity.ProjectStatusSentToYard)

	p, err := svc.Advance(context.Background(), "prj-001", "test-user-001")
	if err != nil {
		t.Fatalf("Advance to staged failed: %v", err)
	}
	if p.YardSpotID == nil {
		t.Fatal("staged project should hold a yard spot")
	}

	// 唯一货位被占，第二个项目进不了staged，状态保持不变
	if _, err := svc.Advance(context.Background(), "prj-002", "test-user-001"); err == nil {
		t.Fatal("expected error when no free yard spot")
	}
	p2, _ := repos.Project.FindByID(context.Background(), "prj-002")
	if p2.Status != entity.ProjectStatusSentToYard {
		t.Fatalf("failed staging must not change status, got %s", p2.Status)
	}

	// 完成后货位释放，第二个项目能进来
	for _, id := range []string{"prj-001", "prj-001"} {
		if _, err := svc.Advance(context.Background(), id, "test-user-001"); err != nil {
			t.Fatalf("Advance %s failed: %v", id, err)
		}
	}
	done, _ := repos.Project.FindByID(context.Background(), "prj-001")
	if done.Status != entity.ProjectStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
	if done.YardSpotID != nil {
		t.Fatal("completed project should not hold a yard spot")
	}

	if _, err := svc.Advance(context.Background(), "prj-002", "test-user-001"); err != nil {
		t.Fatalf("expected staging to succeed after spot release: %v", err)
	}
}

func TestSetStatusBackFromStagedReleasesSpot(t *testing.T) {
	db, repos, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusSentToYard)

	if _, err := svc.Advance(context.Background(), "prj-001", "test-user-001"); err != nil {
		t.Fatalf("Advance to staged failed: %v", err)
	}

	// 管理操作把已入位的项目跳回sent_to_yard，货位必须随之释放
	p, err := svc.SetStatus(context.Background(), "prj-001", entity.ProjectStatusSentToYard, "test-user-001")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if p.YardSpotID != nil {
		t.Fatal("project jumped back before staged should not hold a yard spot")
	}
	spots, _ := repos.Yard.ListSpots(context.Background(), "yard-001")
	for _, spot := range spots {
		if spot.OccupiedByProjectID != nil {
			t.Fatal("yard spot should be free after jumping back")
		}
	}

	// 再次推进能重新拿到货位
	again, err := svc.Advance(context.Background(), "prj-001", "test-user-001")
	if err != nil {
		t.Fatalf("re-staging failed: %v", err)
	}
	if again.YardSpotID == nil {
		t.Fatal("re-staged project should hold a yard spot again")
	}
}

func TestCompletePartialPickupRequiresNotes(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusLoaded)

	if _, err := svc.CompletePartialPickup(context.Background(), "prj-001", "   ", "test-user-001"); err == nil {
		t.Fatal("expected error for blank notes")
	}

	p, err := svc.CompletePartialPickup(context.Background(), "prj-001", "customer left 12 pickets", "test-user-001")
	if err != nil {
		t.Fatalf("CompletePartialPickup failed: %v", err)
	}
	if p.Status != entity.ProjectStatusCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}
	if !p.PartialPickup || p.PartialPickupNotes == "" {
		t.Fatal("partial pickup flag and notes must be set together")
	}
}

func TestPartialPickupOnlyFromLoaded(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusStaged)

	if _, err := svc.CompletePartialPickup(context.Background(), "prj-001", "some notes", "test-user-001"); err == nil {
		t.Fatal("expected error completing partial pickup from staged")
	}
}

func TestClearPartialPickupKeepsStatus(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusLoaded)

	if _, err := svc.CompletePartialPickup(context.Background(), "prj-001", "left some rails", "test-user-001"); err != nil {
		t.Fatalf("CompletePartialPickup failed: %v", err)
	}
	p, err := svc.ClearPartialPickup(context.Background(), "prj-001", "test-user-001")
	if err != nil {
		t.Fatalf("ClearPartialPickup failed: %v", err)
	}
	if p.PartialPickup || p.PartialPickupNotes != "" {
		t.Fatal("partial pickup flag and notes should be cleared")
	}
	if p.Status != entity.ProjectStatusCompleted {
		t.Fatalf("clearing partial pickup must not change status, got %s", p.Status)
	}
}

func TestRevertToLoadedOnlyFromCompleted(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusCompleted)
	testutil.SeedProject(t, db, "prj-002", "PRJ-T002", "yard-001", entity.ProjectStatusStaged)

	p, err := svc.RevertToLoaded(context.Background(), "prj-001", "test-user-001")
	if err != nil {
		t.Fatalf("RevertToLoaded failed: %v", err)
	}
	if p.Status != entity.ProjectStatusLoaded {
		t.Fatalf("expected loaded, got %s", p.Status)
	}

	if _, err := svc.RevertToLoaded(context.Background(), "prj-002", "test-user-001"); err == nil {
		t.Fatal("expected error reverting a staged project")
	}
}

func TestCancelReleasesSpotAndBlocksCompleted(t *testing.T) {
	db, repos, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusSentToYard)
	testutil.SeedProject(t, db, "prj-002", "PRJ-T002", "yard-001", entity.ProjectStatusCompleted)

	if _, err := svc.Advance(context.Background(), "prj-001", "test-user-001"); err != nil {
		t.Fatalf("Advance to staged failed: %v", err)
	}
	p, err := svc.Cancel(context.Background(), "prj-001", "test-user-001")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if p.Status != entity.ProjectStatusCancelled {
		t.Fatalf("expected cancelled, got %s", p.Status)
	}
	if p.YardSpotID != nil {
		t.Fatal("cancelled project should not hold a yard spot")
	}

	spots, _ := repos.Yard.ListSpots(context.Background(), "yard-001")
	for _, spot := range spots {
		if spot.OccupiedByProjectID != nil {
			t.Fatal("all yard spots should be free after cancel")
		}
	}

	if _, err := svc.Cancel(context.Background(), "prj-002", "test-user-001"); err == nil {
		t.Fatal("completed project must not be cancellable")
	}
}

func TestArchivedProjectCannotAdvance(t *testing.T) {
	db, _, svc := setupProjectTest(t)
	testutil.SeedYard(t, db, "yard-001", "Y1", 1)
	testutil.SeedProject(t, db, "prj-001", "PRJ-T001", "yard-001", entity.ProjectStatusDraft)

	if _, err := svc.Archive(context.Background(), "prj-001", "test-user-001", true); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if _, err := svc.Advance(context.Background(), "prj-001", "test-user-001"); err == nil {
		t.Fatal("archived project must not advance")
	}

	restored, err := svc.Archive(context.Background(), "prj-001", "test-user-001", false)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.IsArchived {
		t.Fatal("project should be restored")
	}
	if _, err := svc.Advance(context.Background(), "prj-001", "test-user-001"); err != nil {
		t.Fatalf("restored project should advance: %v", err)
	}
}
