package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/services"
	"github.com/rzv1310/seo-doctor-sub000/internal/interfaces/http/middleware"
)

type AuthHandler struct {
	auth   services.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateBillingDetails(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, apperrors.New(apperrors.KindUnauthorized, "authentication required"))
		return
	}

	var req services.BillingDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.Wrap(apperrors.KindValidation, "invalid request body", err))
		return
	}

	user, err := h.auth.UpdateBillingDetails(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) respondError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
}
