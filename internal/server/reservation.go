package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
)

func (s *Server) getReservation(c *gin.Context) {
	id, err := parseReservationID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reservation, items, err := s.reservationSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservation": reservation,
		"items":       items,
	})
}

func (s *Server) listReservations(c *gin.Context) {
	lineUserID := strings.TrimSpace(c.Query("line_user_id"))
	if lineUserID == "" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reservations, err := s.reservationSvc.ListByUser(c.Request.Context(), lineUserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

func (s *Server) cancelReservation(c *gin.Context) {
	id, err := parseReservationID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reservation, err := s.reservationSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateReservationStatus(c *gin.Context) {
	id, err := parseReservationID(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	status := reservationdomain.Status(strings.TrimSpace(req.Status))
	if !status.Valid() {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reservation, err := s.reservationSvc.UpdateStatus(c.Request.Context(), reservationdomain.UpdateStatusRequest{
		ID:     id,
		Status: status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

func parseReservationID(c *gin.Context) (snowflake.ID, error) {
	raw, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return snowflake.ID(raw), nil
}
