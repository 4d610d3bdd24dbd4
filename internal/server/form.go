package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	reservationdomain "github.com/marugo/torioki/internal/reservation/domain"
)

func (s *Server) getFormConfig(c *gin.Context) {
	presetID, err := parseInt64Param(c, "presetId")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	cfg, err := s.formConfigSvc.Resolve(c.Request.Context(), presetID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

type createReservationRequest struct {
	CustomerName string                        `json:"customer_name"`
	Furigana     *string                       `json:"furigana"`
	Phone        string                        `json:"phone"`
	PickupDate   time.Time                     `json:"pickup_date"`
	Items        []reservationdomain.ItemInput `json:"items"`
	Note         *string                       `json:"note"`
	LineUserID   *string                       `json:"line_user_id"`
	TotalAmount  int64                         `json:"total_amount"`
}

func (s *Server) createReservation(c *gin.Context) {
	presetID, err := parseInt64Param(c, "presetId")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.reservationSvc.Create(c.Request.Context(), reservationdomain.CreateRequest{
		PresetID:     presetID,
		CustomerName: req.CustomerName,
		Furigana:     req.Furigana,
		Phone:        req.Phone,
		PickupDate:   req.PickupDate,
		Items:        req.Items,
		Note:         req.Note,
		LineUserID:   req.LineUserID,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func parseInt64Param(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
