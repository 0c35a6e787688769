package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bitfantasy/fenceyard/internal/fence/entity"
	"github.com/bitfantasy/fenceyard/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_fenceyard"
	JWTSecret  = "fenceyard-jwt-secret-key-2026"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "fenceyard")
	password := getEnv("DB_PASSWORD", "fenceyard123")
	dbname := getEnv("DB_NAME", "fenceyard")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Migrate test tables
	err = db.AutoMigrate(
		&entity.Material{},
		&entity.BusinessUnit{},
		&entity.LaborCode{},
		&entity.LaborRate{},
		&entity.WoodVerticalProduct{},
		&entity.WoodHorizontalProduct{},
		&entity.IronProduct{},
		&entity.ProductLaborCost{},
		&entity.BOMProject{},
		&entity.ProjectMaterialLine{},
		&entity.ProjectLaborLine{},
		&entity.Yard{},
		&entity.YardSpot{},
		&entity.OperationLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"iss":   "fenceyard",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken(
		"test-user-001",
		"Test Admin",
		"admin@test.com",
		[]string{"admin"},
	)
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a handler.Response-like map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedMaterial creates a material row
func SeedMaterial(t *testing.T, db *gorm.DB, sku, name, category string, unitCost, lengthFt, actualWidthIn float64) *entity.Material {
	t.Helper()
	m := &entity.Material{
		ID:            fmt.Sprintf("mat-%s", sku),
		SKU:           sku,
		Name:          name,
		Category:      category,
		UnitCost:      unitCost,
		LengthFt:      lengthFt,
		ActualWidthIn: actualWidthIn,
		Status:        entity.MaterialStatusActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("Failed to seed material %s: %v", sku, err)
	}
	return m
}

// SeedBusinessUnit creates a business unit row
func SeedBusinessUnit(t *testing.T, db *gorm.DB, id, code, name string) *entity.BusinessUnit {
	t.Helper()
	unit := &entity.BusinessUnit{
		ID:        id,
		Code:      code,
		Name:      name,
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(unit).Error; err != nil {
		t.Fatalf("Failed to seed business unit %s: %v", code, err)
	}
	return unit
}

// SeedLaborRate creates a labor code (if missing) and its rate for a unit
func SeedLaborRate(t *testing.T, db *gorm.DB, unitID, laborSKU, unitType string, rate float64) {
	t.Helper()
	var code entity.LaborCode
	err := db.First(&code, "sku = ?", laborSKU).Error
	if err != nil {
		code = entity.LaborCode{
			ID:          fmt.Sprintf("lc-%s", laborSKU),
			SKU:         laborSKU,
			Description: laborSKU,
			UnitType:    unitType,
			IsActive:    true,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := db.Create(&code).Error; err != nil {
			t.Fatalf("Failed to seed labor code %s: %v", laborSKU, err)
		}
	}
	r := &entity.LaborRate{
		ID:             fmt.Sprintf("lr-%s-%s", laborSKU, unitID),
		LaborCodeID:    code.ID,
		BusinessUnitID: unitID,
		Rate:           rate,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("Failed to seed labor rate %s: %v", laborSKU, err)
	}
}

// SeedYard creates a yard with the given number of spots
func SeedYard(t *testing.T, db *gorm.DB, id, code string, spots int) *entity.Yard {
	t.Helper()
	yard := &entity.Yard{
		ID:        id,
		Code:      code,
		Name:      "Yard " + code,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(yard).Error; err != nil {
		t.Fatalf("Failed to seed yard %s: %v", code, err)
	}
	for i := 1; i <= spots; i++ {
		spot := &entity.YardSpot{
			ID:        fmt.Sprintf("%s-spot-%02d", id, i),
			YardID:    id,
			Code:      fmt.Sprintf("%s-%02d", code, i),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := db.Create(spot).Error; err != nil {
			t.Fatalf("Failed to seed yard spot: %v", err)
		}
	}
	return yard
}

// SeedProject creates a minimal project row in the given status
func SeedProject(t *testing.T, db *gorm.DB, id, code, yardID, status string) *entity.BOMProject {
	t.Helper()
	p := &entity.BOMProject{
		ID:          id,
		Code:        code,
		Name:        "Project " + code,
		Status:      status,
		YardID:      yardID,
		FenceType:   "wood_vertical",
		NetLengthFt: 100,
		Lines:       1,
		CreatedBy:   "test-user-001",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to seed project %s: %v", code, err)
	}
	return p
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
