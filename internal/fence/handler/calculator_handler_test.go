package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/fence/repository"
	"github.com/bitfantasy/fenceyard/internal/fence/service"
	"github.com/bitfantasy/fenceyard/internal/fence/testutil"
	"gorm.io/gorm"
)

func setupCalculatorTest(t *testing.T) (*testutil.TestEnv, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, nil, nil, "")
	h := NewHandlers(services, repos)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/calculator/preview", h.Calculator.Preview)

	return &testutil.TestEnv{DB: db, Router: router, T: t}, db
}

func seedCalculatorCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedMaterial(t, db, "PST-4X4-8", "4x4x8 Post", entity.MaterialCategoryPost, 12.50, 8, 3.5)
	testutil.SeedMaterial(t, db, "PKT-6FT-CDR", "6ft Cedar Picket", entity.MaterialCategoryPicket, 3.25, 6, 5.5)
	testutil.SeedMaterial(t, db, "RAL-2X4-8", "2x4x8 Rail", entity.MaterialCategoryRail, 4.10, 8, 3.5)
	testutil.SeedMaterial(t, db, "CON-SANDGRAVEL", "Sand & Gravel Bag", entity.MaterialCategoryConcrete, 5.20, 0, 0)
	testutil.SeedMaterial(t, db, "CON-PORTLAND", "Portland Cement Bag", entity.MaterialCategoryConcrete, 11.80, 0, 0)
	testutil.SeedMaterial(t, db, "CON-QUICKROCK", "Quickrock Bag", entity.MaterialCategoryConcrete, 7.40, 0, 0)
}

// TestCalculatorPreview tests the quote preview endpoint end to end
func TestCalculatorPreview(t *testing.T) {
	env, db := setupCalculatorTest(t)
	token := testutil.DefaultTestToken()
	seedCalculatorCatalog(t, db)

	body := map[string]interface{}{
		"fence_type":    "wood_vertical",
		"height_ft":     6,
		"style":         "standard",
		"post_type":     "WOOD",
		"net_length_ft": 100,
		"lines":         1,
		"gates":         0,
		"materials": map[string]string{
			"post":   "PST-4X4-8",
			"picket": "PKT-6FT-CDR",
			"rail":   "RAL-2X4-8",
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/calculator/preview", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["material_total"].(float64) <= 0 {
		t.Fatalf("expected positive material total, got %v", data["material_total"])
	}
	if data["cost_per_foot"].(float64) <= 0 {
		t.Fatalf("expected positive cost per foot, got %v", data["cost_per_foot"])
	}

	result := data["result"].(map[string]interface{})
	if missing, ok := result["missing"].([]interface{}); ok && len(missing) > 0 {
		t.Fatalf("expected no missing materials, got %v", missing)
	}
}

// TestCalculatorPreviewMissingMaterial tests that a missing SKU degrades instead of failing
func TestCalculatorPreviewMissingMaterial(t *testing.T) {
	env, db := setupCalculatorTest(t)
	token := testutil.DefaultTestToken()
	seedCalculatorCatalog(t, db)

	body := map[string]interface{}{
		"fence_type":    "wood_vertical",
		"height_ft":     6,
		"net_length_ft": 100,
		"materials": map[string]string{
			"post":   "PST-4X4-8",
			"picket": "SKU-DOES-NOT-EXIST",
			"rail":   "RAL-2X4-8",
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/calculator/preview", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("missing material must not fail the preview, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	result := data["result"].(map[string]interface{})
	missing, _ := result["missing"].([]interface{})
	if len(missing) == 0 {
		t.Fatal("expected picket slot reported as missing")
	}
}

// TestCalculatorPreviewRejectsUnknownType tests fence type validation
func TestCalculatorPreviewRejectsUnknownType(t *testing.T) {
	env, _ := setupCalculatorTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"fence_type":    "chain_link",
		"height_ft":     6,
		"net_length_ft": 100,
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/calculator/preview", body, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown fence type, got %d", w.Code)
	}
}

// TestCalculatorPreviewRequiresAuth tests the JWT middleware wiring
func TestCalculatorPreviewRequiresAuth(t *testing.T) {
	env, _ := setupCalculatorTest(t)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/calculator/preview", map[string]interface{}{}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}
