package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type registerRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Gender            string `json:"gender" binding:"required"`
	PracticeStartYear int    `json:"practice_start_year"`
	Degree            string `json:"degree"`
	Speciality        string `json:"speciality"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Register(c.Request.Context(), &service.RegisterCommand{
		Email:             req.Email,
		Password:          req.Password,
		Name:              req.Name,
		Gender:            doctor.Gender(req.Gender),
		PracticeStartYear: req.PracticeStartYear,
		Degree:            req.Degree,
		Speciality:        req.Speciality,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, pair)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

// Verify handles the email-verification callback link.
func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Query("token")
	tokenType := c.Query("type")
	if token == "" {
		respondError(c, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.svc.VerifyEmail(c.Request.Context(), token, tokenType); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[any]{Message: "email verified"})
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), caller.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
