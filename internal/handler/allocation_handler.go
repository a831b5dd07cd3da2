package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/service"
)

// AllocationHandler serves the entry amount ledger: computed shares,
// manual shares for FIXED_AMOUNTS entries and per-participant totals.
type AllocationHandler struct {
	alloc *service.AllocationService
}

func NewAllocationHandler(alloc *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{alloc: alloc}
}

type createEntryAmountReq struct {
	FieldValueID  string `json:"field_value_id" binding:"required"`
	ParticipantID string `json:"participant_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

func (h *AllocationHandler) CreateEntryAmount(c *gin.Context) {
	var req createEntryAmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondBadRequest(c, "invalid amount: "+req.Amount)
		return
	}
	ea, err := h.alloc.CreateEntryAmount(c.Request.Context(), req.FieldValueID, req.ParticipantID, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, ea)
}

func (h *AllocationHandler) GetEntryAmount(c *gin.Context) {
	ea, err := h.alloc.GetEntryAmount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, ea)
}

// ListEntryAmounts returns shares, narrowed by ?field_value_id= or
// ?participant_id=.
func (h *AllocationHandler) ListEntryAmounts(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		amounts []models.ParticipantEntryAmount
		err     error
	)
	switch {
	case c.Query("field_value_id") != "":
		amounts, err = h.alloc.ListEntryAmountsByFieldValue(ctx, c.Query("field_value_id"))
	case c.Query("participant_id") != "":
		amounts, err = h.alloc.ListEntryAmountsByParticipant(ctx, c.Query("participant_id"))
	default:
		amounts, err = h.alloc.ListEntryAmounts(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, amounts)
}

type updateEntryAmountReq struct {
	Amount string `json:"amount" binding:"required"`
}

func (h *AllocationHandler) UpdateEntryAmount(c *gin.Context) {
	var req updateEntryAmountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondBadRequest(c, "invalid amount: "+req.Amount)
		return
	}
	ea, err := h.alloc.UpdateEntryAmount(c.Request.Context(), c.Param("id"), amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, ea)
}

func (h *AllocationHandler) DeleteEntryAmount(c *gin.Context) {
	if err := h.alloc.DeleteEntryAmount(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "entry amount deleted")
}

func (h *AllocationHandler) DeleteEntryAmountsByFieldValue(c *gin.Context) {
	if err := h.alloc.DeleteEntryAmountsByFieldValue(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "entry amounts deleted")
}

func (h *AllocationHandler) DeleteEntryAmountsByParticipant(c *gin.Context) {
	if err := h.alloc.DeleteEntryAmountsByParticipant(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "entry amounts deleted")
}

type totalResp struct {
	InstanceID    string `json:"instance_id"`
	ParticipantID string `json:"participant_id"`

	// Total is rendered at two decimal places; decimal's own JSON form
	// drops trailing zeros.
	Total string `json:"total"`
}

// ParticipantTotal sums one participant's shares across an instance.
func (h *AllocationHandler) ParticipantTotal(c *gin.Context) {
	instanceID := c.Param("id")
	participantID := c.Param("participantId")
	total, err := h.alloc.TotalForParticipantInInstance(c.Request.Context(), instanceID, participantID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, totalResp{InstanceID: instanceID, ParticipantID: participantID, Total: total.StringFixed(2)})
}
