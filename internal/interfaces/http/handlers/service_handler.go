package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rzv1310/seo-doctor-sub000/internal/apperrors"
	"github.com/rzv1310/seo-doctor-sub000/internal/domain/repositories"
)

type ServiceHandler struct {
	services repositories.ServiceRepository
}

func NewServiceHandler(services repositories.ServiceRepository) *ServiceHandler {
	return &ServiceHandler{services: services}
}

// List exposes the purchasable service catalog for the dashboard.
func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.services.ListServices(c.Request.Context())
	if err != nil {
		wrapped := apperrors.Wrap(apperrors.KindInternal, "failed to load services", err)
		c.JSON(apperrors.HTTPStatus(wrapped), gin.H{"error": wrapped.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}
