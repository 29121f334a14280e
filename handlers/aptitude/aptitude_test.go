package aptitude

import (
	"net/http/httptest"
	"testing"

	"github.com/advisorly/api/model"
	"github.com/advisorly/api/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires the handler behind a stub auth middleware that injects the
// given user, the way the real middleware does after token validation
func newTestApp(t *testing.T, user *model.User) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.AptitudeTestSession{}))

	handler := NewAptitudeHandler(services.NewAptitudeService(db, nil, nil))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	})
	app.Post("/sessions", handler.CreateSession)
	app.Put("/sessions/:id/subjects", handler.UpdateFavoriteSubjects)
	app.Put("/sessions/:id/comfort-levels", handler.UpdateComfortLevels)
	app.Put("/sessions/:id/answers", handler.UpdateAnswers)
	app.Post("/sessions/:id/generate", handler.GenerateRecommendations)
	app.Post("/sessions/:id/hide", handler.HideSession)
	return app
}

func TestAptitudeEndpointsForbiddenForAdvisors(t *testing.T) {
	advisor := &model.User{ID: 7, Email: "dana@example.com", Name: "Dana Whitfield", Role: model.RoleAdvisor}
	app := newTestApp(t, advisor)

	requests := []struct {
		method string
		path   string
	}{
		{"POST", "/sessions"},
		{"PUT", "/sessions/1/subjects"},
		{"PUT", "/sessions/1/comfort-levels"},
		{"PUT", "/sessions/1/answers"},
		{"POST", "/sessions/1/generate"},
		{"POST", "/sessions/1/hide"},
	}

	for _, r := range requests {
		resp, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "%s %s", r.method, r.path)
	}
}

func TestGenerateRecommendationsUnauthenticated(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/sessions/1/generate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGenerateRecommendationsUnknownSession(t *testing.T) {
	student := &model.User{ID: 3, Email: "maya@example.com", Name: "Maya Chen", Role: model.RoleStudent}
	app := newTestApp(t, student)

	// Students past the role gate hit the ownership lookup
	resp, err := app.Test(httptest.NewRequest("POST", "/sessions/9999/generate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
