package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	playdomain "github.com/smallbiznis/prizewheel/internal/play/domain"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
)

type wheelSettingsResponse struct {
	Configured bool                  `json:"configured"`
	Segments   []prizedomain.Segment `json:"segments"`
	UpdatedAt  *time.Time            `json:"updated_at,omitempty"`
}

type saveWheelRequest struct {
	Segments []prizedomain.Segment `json:"segments"`
}

func (s *Server) GetWheelSettings(c *gin.Context) {
	catalog, err := s.prizeSvc.Get(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		if errors.Is(err, prizedomain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"data": wheelSettingsResponse{
				Configured: false,
				Segments:   make([]prizedomain.Segment, prizedomain.DefaultSegmentCount),
			}})
			return
		}
		AbortWithError(c, err)
		return
	}

	updatedAt := catalog.UpdatedAt
	c.JSON(http.StatusOK, gin.H{"data": wheelSettingsResponse{
		Configured: true,
		Segments:   catalog.Segments,
		UpdatedAt:  &updatedAt,
	}})
}

func (s *Server) SaveWheelSettings(c *gin.Context) {
	var req saveWheelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	catalog, err := s.prizeSvc.Save(c.Request.Context(), tenantFromContext(c), prizedomain.SaveCatalogRequest{
		Segments: req.Segments,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	updatedAt := catalog.UpdatedAt
	c.JSON(http.StatusOK, gin.H{"data": wheelSettingsResponse{
		Configured: true,
		Segments:   catalog.Segments,
		UpdatedAt:  &updatedAt,
	}})
}

func (s *Server) ListPlays(c *gin.Context) {
	plays, err := s.playSvc.List(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if plays == nil {
		plays = []playdomain.PlayRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": plays})
}

func (s *Server) DeletePlay(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	if err := s.playSvc.Delete(c.Request.Context(), tenantFromContext(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
