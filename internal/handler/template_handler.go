package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/service"
)

// TemplateHandler serves the design-time API: templates, participants,
// fields, split rules and rule allocations.
type TemplateHandler struct {
	templates *service.TemplateService
}

func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type createTemplateReq struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req createTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	t, err := h.templates.CreateTemplate(c.Request.Context(), req.UserID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, t)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := h.templates.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, t)
}

// ListTemplates returns all templates, or one user's with ?user_id=.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var (
		templates []models.Template
		err       error
	)
	if userID := c.Query("user_id"); userID != "" {
		templates, err = h.templates.ListTemplatesByUser(c.Request.Context(), userID)
	} else {
		templates, err = h.templates.ListTemplates(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, templates)
}

type updateTemplateReq struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	var req updateTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	t, err := h.templates.UpdateTemplate(c.Request.Context(), c.Param("id"), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, t)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	if err := h.templates.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "template deleted")
}

type addParticipantReq struct {
	Name         string `json:"name" binding:"required"`
	DisplayOrder int    `json:"display_order"`
}

func (h *TemplateHandler) AddParticipant(c *gin.Context) {
	var req addParticipantReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	p, err := h.templates.AddParticipant(c.Request.Context(), c.Param("id"), req.Name, req.DisplayOrder)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *TemplateHandler) ListParticipants(c *gin.Context) {
	participants, err := h.templates.ListParticipants(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, participants)
}

func (h *TemplateHandler) GetParticipant(c *gin.Context) {
	p, err := h.templates.GetParticipant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *TemplateHandler) DeleteParticipant(c *gin.Context) {
	if err := h.templates.DeleteParticipant(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "participant deleted")
}

type addFieldReq struct {
	Label              string `json:"label" binding:"required"`
	FieldType          string `json:"field_type" binding:"required,oneof=AMOUNT DATE TEXT"`
	DefaultSplitRuleID string `json:"default_split_rule_id"`
	DisplayOrder       int    `json:"display_order"`
}

func (h *TemplateHandler) AddField(c *gin.Context) {
	var req addFieldReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	f, err := h.templates.AddField(c.Request.Context(), c.Param("id"), req.Label,
		models.FieldType(req.FieldType), req.DefaultSplitRuleID, req.DisplayOrder)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, f)
}

func (h *TemplateHandler) ListFields(c *gin.Context) {
	fields, err := h.templates.ListFields(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, fields)
}

func (h *TemplateHandler) GetField(c *gin.Context) {
	f, err := h.templates.GetField(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, f)
}

func (h *TemplateHandler) DeleteField(c *gin.Context) {
	if err := h.templates.DeleteField(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "field deleted")
}

type createSplitRuleReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *TemplateHandler) CreateSplitRule(c *gin.Context) {
	var req createSplitRuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	r, err := h.templates.CreateSplitRule(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, r)
}

func (h *TemplateHandler) ListSplitRules(c *gin.Context) {
	rules, err := h.templates.ListSplitRules(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rules)
}

func (h *TemplateHandler) GetSplitRule(c *gin.Context) {
	r, err := h.templates.GetSplitRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *TemplateHandler) DeleteSplitRule(c *gin.Context) {
	if err := h.templates.DeleteSplitRule(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "split rule deleted")
}

type addRuleAllocationReq struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Percent       string `json:"percent" binding:"required"`
}

func (h *TemplateHandler) AddRuleAllocation(c *gin.Context) {
	var req addRuleAllocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	percent, err := decimal.NewFromString(req.Percent)
	if err != nil {
		respondBadRequest(c, "invalid percent: "+req.Percent)
		return
	}
	a, err := h.templates.AddRuleAllocation(c.Request.Context(), c.Param("id"), req.ParticipantID, percent)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, a)
}

func (h *TemplateHandler) ListRuleAllocations(c *gin.Context) {
	allocs, err := h.templates.ListRuleAllocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, allocs)
}

// ValidateSplitRule runs the opt-in percent total check for a rule.
func (h *TemplateHandler) ValidateSplitRule(c *gin.Context) {
	if err := h.templates.ValidateRuleTotal(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "rule allocations total 100.00")
}

func (h *TemplateHandler) GetRuleAllocation(c *gin.Context) {
	a, err := h.templates.GetRuleAllocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *TemplateHandler) DeleteRuleAllocation(c *gin.Context) {
	if err := h.templates.DeleteRuleAllocation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "rule allocation deleted")
}
