package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/service"
)

// AuthHandler holds the authentication and profile service dependencies.
type AuthHandler struct {
	authService    service.AuthService
	profileService service.ProfileService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, profileService service.ProfileService) *AuthHandler {
	return &AuthHandler{authService: authService, profileService: profileService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	FullName string      `json:"fullName" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=user dietitian trainer"`
}

// ProfileResponse excludes sensitive info like password hash
type ProfileResponse struct {
	ID        string      `json:"id"`
	FullName  string      `json:"fullName"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Profile ProfileResponse `json:"profile"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new profile (user, dietitian or trainer)
// @Tags Auth
// @Accept json
// @Produce json
// @Param profile body RegisterRequest true "Registration details"
// @Success 201 {object} ProfileResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.authService.Register(c.Request.Context(), req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProfileToResponse(profile))
}

// Login godoc
// @Summary Log in and receive a JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} gin.H "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, profile, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, Profile: MapProfileToResponse(profile)})
}

// GetMe godoc
// @Summary Get the caller's profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Router /me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	profile, err := h.profileService.GetProfile(c.Request.Context(), session)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// UpdateMe godoc
// @Summary Update the caller's name or phone
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} ProfileResponse
// @Router /me [patch]
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	profile, err := h.profileService.UpdateProfile(c.Request.Context(), session, service.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// MapProfileToResponse converts a domain Profile to a ProfileResponse DTO.
func MapProfileToResponse(p *domain.Profile) ProfileResponse {
	if p == nil {
		return ProfileResponse{}
	}
	return ProfileResponse{
		ID:        p.ID.Hex(),
		FullName:  p.FullName,
		Email:     p.Email,
		Phone:     p.Phone,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}
