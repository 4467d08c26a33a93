package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskforge/task-manager-api/internal/database"
	"github.com/taskforge/task-manager-api/internal/dto"
	"github.com/taskforge/task-manager-api/internal/middleware"
	"github.com/taskforge/task-manager-api/internal/models"
	"github.com/taskforge/task-manager-api/internal/repository"
	"github.com/taskforge/task-manager-api/internal/services"
	"github.com/taskforge/task-manager-api/internal/token"
)

type authTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	tokens      *token.Manager
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{})
	require.NoError(t, err)

	database.SetDB(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	tokens := token.NewManager("test-secret")
	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo, tokens, "super-secret-invite")
	handler := NewAuthHandler(authService)

	r := gin.New()
	r.POST("/api/auth/register", handler.Register)
	r.POST("/api/auth/login", handler.Login)
	r.GET("/api/auth/profile", middleware.RequireAuth(tokens), handler.GetProfile)
	r.PUT("/api/auth/profile", middleware.RequireAuth(tokens), handler.UpdateProfile)

	return authTestEnv{
		db:          db,
		router:      r,
		authService: authService,
		tokens:      tokens,
	}
}

func (env authTestEnv) doJSON(t *testing.T, method, url string, payload any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "New User",
		"email":    "new.user@example.com",
		"password": "supersecret",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "New User", response.Name)
	require.Equal(t, "new.user", response.Username, "username defaults to the email local-part")
	require.Equal(t, models.RoleMember, response.Role)
	require.NotEmpty(t, response.Token)

	userID, err := env.tokens.Parse(response.Token)
	require.NoError(t, err)
	require.Equal(t, response.ID, userID)
}

func TestAuthHandler_Register_AdminInviteToken(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":               "Boss",
		"email":              "boss@example.com",
		"password":           "supersecret",
		"admin_invite_token": "super-secret-invite",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, models.RoleAdmin, response.Role)
}

func TestAuthHandler_Register_WrongInviteTokenStaysMember(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":               "Wannabe",
		"email":              "wannabe@example.com",
		"password":           "supersecret",
		"admin_invite_token": "guessed-wrong",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, models.RoleMember, response.Role)
}

func TestAuthHandler_Register_DuplicateEmailConflicts(t *testing.T) {
	env := setupAuthTestEnv(t)

	payload := map[string]string{
		"name":     "First",
		"email":    "taken@example.com",
		"password": "supersecret",
	}

	w := env.doJSON(t, http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusCreated, w.Code)

	payload["name"] = "Second"
	w = env.doJSON(t, http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Name:     "Existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	}, "")

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "existing@example.com", response.Email)
	require.NotEmpty(t, response.Token)
}

func TestAuthHandler_Login_DoesNotLeakWhichFieldWasWrong(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, _, err := env.authService.Register(services.RegisterInput{
		Name:     "Existing",
		Email:    "existing@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	wrongPassword := env.doJSON(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "wrong-password",
	}, "")
	unknownEmail := env.doJSON(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "supersecret",
	}, "")

	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	require.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	require.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String(),
		"both failure modes must be indistinguishable")
}

func TestAuthHandler_GetProfile(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, signed, err := env.authService.Register(services.RegisterInput{
		Name:     "Profile User",
		Email:    "profile@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodGet, "/api/auth/profile", nil, signed)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.ID, response.ID)
	require.Equal(t, "Profile User", response.Name)

	// The password hash must never appear in a response
	require.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_GetProfile_RejectsMissingToken(t *testing.T) {
	env := setupAuthTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/api/auth/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.doJSON(t, http.MethodGet, "/api/auth/profile", nil, "bogus-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_UpdateProfile(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, signed, err := env.authService.Register(services.RegisterInput{
		Name:     "Before",
		Email:    "before@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPut, "/api/auth/profile", map[string]string{
		"name":     "After",
		"password": "evenmoresecret",
	}, signed)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "After", response.Name)
	require.Equal(t, "before@example.com", response.Email, "email unchanged when absent")
	require.NotEmpty(t, response.Token)

	// The new password works, the old one does not
	_, _, err = env.authService.Login(services.LoginInput{Email: user.Email, Password: "evenmoresecret"})
	require.NoError(t, err)
	_, _, err = env.authService.Login(services.LoginInput{Email: user.Email, Password: "supersecret"})
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}
