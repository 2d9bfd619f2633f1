// Package http provides the HTTP handlers for OCPI version discovery.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/ocpi/internal/ocpi"
	versionUseCase "github.com/allisson/ocpi/internal/version/usecase"
)

// VersionHandler serves the list of supported OCPI versions.
type VersionHandler struct {
	directory versionUseCase.Directory
	logger    *slog.Logger
}

// NewVersionHandler creates a new version handler.
func NewVersionHandler(directory versionUseCase.Directory, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		directory: directory,
		logger:    logger,
	}
}

// ListHandler returns the supported versions sorted by version id.
// GET /versions - blocked tokens are rejected earlier by ocpi.AccessTokenMiddleware.
func (h *VersionHandler) ListHandler(c *gin.Context) {
	versions := h.directory.List()

	token, _ := ocpi.GetAccessToken(c.Request.Context())
	h.logger.Debug("listing versions",
		slog.Int("count", len(versions)),
		slog.Bool("authenticated", token != ""),
	)

	ocpi.Success(c, versions, ocpi.MessageHelloWorld)
}

// OptionsHandler answers OPTIONS /versions with the allowed methods.
func (h *VersionHandler) OptionsHandler(c *gin.Context) {
	c.Header("Allow", "OPTIONS, GET")
	c.Status(http.StatusOK)
}
