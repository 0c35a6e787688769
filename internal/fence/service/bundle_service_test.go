package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/testutil"
	"gorm.io/gorm"
)

func setupBundleTest(t *testing.T) (*gorm.DB, *repository.Repositories, *BundleService, *ProjectService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	calculator := NewCalculatorService(repos.Material, repos.Labor)
	projectSvc := NewProjectService(repos.Project, repos.Yard, calculator, db)
	bundleSvc := NewBundleService(repos.Project, db)
	return db, repos, bundleSvc, projectSvc
}

func seedBundleProjects(t *testing.T, db *gorm.DB, n int) []string {
	t.Helper()
	testutil.SeedYard(t, db, "yard-001", "Y1", 5)
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("prj-bundle-%03d", i)
		testutil.SeedProject(t, db, id, fmt.Sprintf("PRJ-B%03d", i), "yard-001", entity.ProjectStatusReady)
		ids = append(ids, id)
	}
	return ids
}

func TestCreateBundleRequiresTwoProjects(t *testing.T) {
	db, _, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 1)

	_, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "single",
		ProjectIDs: ids,
	}, "test-user-001")
	if err == nil {
		t.Fatal("expected error bundling a single project")
	}
}

func TestCreateBundleRejectsMismatchedPickupDates(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 2)

	later := time.Now().AddDate(0, 0, 7)
	p, _ := repos.Project.FindByID(context.Background(), ids[1])
	p.ExpectedPickupDate = &later
	if err := repos.Project.Update(context.Background(), p); err != nil {
		t.Fatalf("pickup date setup failed: %v", err)
	}

	_, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "split dates",
		ProjectIDs: ids,
	}, "test-user-001")
	if err == nil {
		t.Fatal("expected error bundling projects with different pickup dates")
	}
}

func TestCreateBundleRejectsMismatchedYards(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 2)
	testutil.SeedYard(t, db, "yard-002", "Y2", 5)

	moved, _ := repos.Project.FindByID(context.Background(), ids[1])
	moved.YardID = "yard-002"
	if err := repos.Project.Update(context.Background(), moved); err != nil {
		t.Fatalf("yard setup failed: %v", err)
	}

	_, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "split yards",
		ProjectIDs: ids,
	}, "test-user-001")
	if err == nil {
		t.Fatal("expected error bundling projects in different yards")
	}

	// 第一个子项目没有库场、第二个有：同样必须拒绝
	first, _ := repos.Project.FindByID(context.Background(), ids[0])
	first.YardID = ""
	if err := repos.Project.Update(context.Background(), first); err != nil {
		t.Fatalf("yard setup failed: %v", err)
	}
	_, err = svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "no yard first",
		ProjectIDs: ids,
	}, "test-user-001")
	if err == nil {
		t.Fatal("expected error bundling a no-yard project with a yard-assigned one")
	}
}

func TestCreateBundleValidatesBeforeWrite(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 2)

	// 其中一个项目已归档，整个请求必须失败且不留父记录
	archived, _ := repos.Project.FindByID(context.Background(), ids[1])
	archived.IsArchived = true
	if err := repos.Project.Update(context.Background(), archived); err != nil {
		t.Fatalf("archive setup failed: %v", err)
	}

	_, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "invalid",
		ProjectIDs: ids,
	}, "test-user-001")
	if err == nil {
		t.Fatal("expected error bundling an archived project")
	}

	var bundles int64
	db.Model(&entity.BOMProject{}).Where("is_bundle = ?", true).Count(&bundles)
	if bundles != 0 {
		t.Fatalf("no bundle row should exist after failed validation, found %d", bundles)
	}
	first, _ := repos.Project.FindByID(context.Background(), ids[0])
	if first.BundleID != nil {
		t.Fatal("no project should be attached after failed validation")
	}
}

func TestCreateBundleAttachesChildren(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 3)

	bundle, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "north side trio",
		ProjectIDs: ids,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateBundle failed: %v", err)
	}
	if !bundle.IsBundle {
		t.Fatal("bundle row must have is_bundle set")
	}
	if bundle.BundleID != nil {
		t.Fatal("bundle row must not itself belong to a bundle")
	}

	children, err := repos.Project.ListChildren(context.Background(), bundle.ID)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}

	// 已入组的项目不能再入另一个组
	_, err = svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "overlap",
		ProjectIDs: ids[:2],
	}, "test-user-001")
	if err == nil {
		t.Fatal("expected error bundling already-bundled projects")
	}
}

func TestAdvanceBundleWritesParentOnly(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 2)

	bundle, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "pair",
		ProjectIDs: ids,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateBundle failed: %v", err)
	}

	advanced, err := svc.AdvanceBundle(context.Background(), bundle.ID, "test-user-001")
	if err != nil {
		t.Fatalf("AdvanceBundle failed: %v", err)
	}
	if advanced.Status != entity.ProjectStatusSentToYard {
		t.Fatalf("expected sent_to_yard on parent, got %s", advanced.Status)
	}

	// 子项目行自身的status字段不动，对外展示以父记录为准
	for _, id := range ids {
		child, _ := repos.Project.FindByID(context.Background(), id)
		if child.Status != entity.ProjectStatusReady {
			t.Fatalf("child %s status should stay ready, got %s", id, child.Status)
		}
	}
}

func TestDetachBelowTwoDissolvesBundle(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 2)

	bundle, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "pair",
		ProjectIDs: ids,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateBundle failed: %v", err)
	}

	detached, err := svc.DetachProject(context.Background(), ids[0], "test-user-001")
	if err != nil {
		t.Fatalf("DetachProject failed: %v", err)
	}
	if detached.BundleID != nil {
		t.Fatal("detached project must have nil bundle_id")
	}

	// 只剩1个子项目，捆组必须已自动解散
	if _, err := repos.Project.FindByID(context.Background(), bundle.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("bundle row should be deleted, got err=%v", err)
	}
	remaining, _ := repos.Project.FindByID(context.Background(), ids[1])
	if remaining.BundleID != nil {
		t.Fatal("remaining child must be detached when bundle dissolves")
	}
}

func TestDetachFromThreeKeepsBundle(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 3)

	bundle, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "trio",
		ProjectIDs: ids,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateBundle failed: %v", err)
	}

	if _, err := svc.DetachProject(context.Background(), ids[0], "test-user-001"); err != nil {
		t.Fatalf("DetachProject failed: %v", err)
	}

	if _, err := repos.Project.FindByID(context.Background(), bundle.ID); err != nil {
		t.Fatalf("bundle with 2 remaining children must survive: %v", err)
	}
	children, _ := repos.Project.ListChildren(context.Background(), bundle.ID)
	if len(children) != 2 {
		t.Fatalf("expected 2 remaining children, got %d", len(children))
	}
	_ = db
}

func TestIndependentStatusChangeDetachesChild(t *testing.T) {
	db, repos, svc, projectSvc := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 2)

	bundle, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "pair",
		ProjectIDs: ids,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateBundle failed: %v", err)
	}

	// 单独推进一个子项目：先摘除，组内只剩1个，整组解散
	p, err := projectSvc.Advance(context.Background(), ids[0], "test-user-001")
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if p.BundleID != nil {
		t.Fatal("independently advanced child must be detached")
	}
	if p.Status != entity.ProjectStatusSentToYard {
		t.Fatalf("expected sent_to_yard, got %s", p.Status)
	}

	if _, err := repos.Project.FindByID(context.Background(), bundle.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("bundle should be dissolved, got err=%v", err)
	}
	sibling, _ := repos.Project.FindByID(context.Background(), ids[1])
	if sibling.BundleID != nil {
		t.Fatal("sibling must be detached on dissolution")
	}
	if sibling.Status != entity.ProjectStatusReady {
		t.Fatalf("sibling status must be untouched, got %s", sibling.Status)
	}
}

func TestUnbundleKeepsChildStatuses(t *testing.T) {
	db, repos, svc, _ := setupBundleTest(t)
	ids := seedBundleProjects(t, db, 3)

	bundle, err := svc.CreateBundle(context.Background(), &CreateBundleRequest{
		Name:       "trio",
		ProjectIDs: ids,
	}, "test-user-001")
	if err != nil {
		t.Fatalf("CreateBundle failed: %v", err)
	}

	if err := svc.Unbundle(context.Background(), bundle.ID, "test-user-001"); err != nil {
		t.Fatalf("Unbundle failed: %v", err)
	}

	if _, err := repos.Project.FindByID(context.Background(), bundle.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("bundle row should be deleted after unbundle")
	}
	for _, id := range ids {
		child, _ := repos.Project.FindByID(context.Background(), id)
		if child.BundleID != nil {
			t.Fatalf("child %s should be detached", id)
		}
		if child.Status != entity.ProjectStatusReady {
			t.Fatalf("child %s status must survive unbundle, got %s", id, child.Status)
		}
	}
	_ = db
}
