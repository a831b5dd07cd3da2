package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/service"
)

// InstanceHandler serves instances and their cost entries.
type InstanceHandler struct {
	instances *service.InstanceService
}

func NewInstanceHandler(instances *service.InstanceService) *InstanceHandler {
	return &InstanceHandler{instances: instances}
}

type createInstanceReq struct {
	TemplateID string `json:"template_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

func (h *InstanceHandler) CreateInstance(c *gin.Context) {
	var req createInstanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	in, err := h.instances.CreateInstance(c.Request.Context(), req.TemplateID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, in)
}

func (h *InstanceHandler) GetInstance(c *gin.Context) {
	in, err := h.instances.GetInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, in)
}

// ListInstances returns all instances, narrowed by ?template_id= and
// optionally ?status=.
func (h *InstanceHandler) ListInstances(c *gin.Context) {
	ctx := c.Request.Context()
	templateID := c.Query("template_id")
	status := c.Query("status")

	var (
		instances []models.TemplateInstance
		err       error
	)
	switch {
	case templateID != "" && status != "":
		instances, err = h.instances.ListInstancesByTemplateAndStatus(ctx, templateID, models.InstanceStatus(status))
	case templateID != "":
		instances, err = h.instances.ListInstancesByTemplate(ctx, templateID)
	default:
		instances, err = h.instances.ListInstances(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, instances)
}

type renameInstanceReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *InstanceHandler) RenameInstance(c *gin.Context) {
	var req renameInstanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	in, err := h.instances.RenameInstance(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, in)
}

func (h *InstanceHandler) MarkSettled(c *gin.Context) {
	in, err := h.instances.MarkSettled(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, in)
}

func (h *InstanceHandler) Reopen(c *gin.Context) {
	in, err := h.instances.Reopen(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, in)
}

func (h *InstanceHandler) DeleteInstance(c *gin.Context) {
	if err := h.instances.DeleteInstance(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "instance deleted")
}

type addFieldValueReq struct {
	FieldID             string `json:"field_id" binding:"required"`
	Amount              string `json:"amount" binding:"required"`
	Note                string `json:"note"`
	EntryDate           string `json:"entry_date"`
	SplitMode           string `json:"split_mode" binding:"omitempty,oneof=DEFAULT FIXED_AMOUNTS OVERRIDE"`
	OverrideSplitRuleID string `json:"override_split_rule_id"`
}

// AddFieldValue records a cost entry. A 422 response means the entry was
// persisted but no split rule was available to divide it; the client must
// either attach a rule and re-materialize or delete the entry.
func (h *InstanceHandler) AddFieldValue(c *gin.Context) {
	var req addFieldValueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondBadRequest(c, "invalid amount: "+req.Amount)
		return
	}
	fv, err := h.instances.AddFieldValue(c.Request.Context(), c.Param("id"), req.FieldID,
		amount, req.Note, req.EntryDate, models.SplitMode(req.SplitMode), req.OverrideSplitRuleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, fv)
}

func (h *InstanceHandler) ListFieldValues(c *gin.Context) {
	ctx := c.Request.Context()
	instanceID := c.Param("id")

	var (
		values []models.InstanceFieldValue
		err    error
	)
	if fieldID := c.Query("field_id"); fieldID != "" {
		values, err = h.instances.ListFieldValuesByField(ctx, instanceID, fieldID)
	} else {
		values, err = h.instances.ListFieldValues(ctx, instanceID)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, values)
}

func (h *InstanceHandler) GetFieldValue(c *gin.Context) {
	fv, err := h.instances.GetFieldValue(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, fv)
}

type updateFieldValueReq struct {
	Amount              string `json:"amount" binding:"required"`
	Note                string `json:"note"`
	EntryDate           string `json:"entry_date"`
	SplitMode           string `json:"split_mode" binding:"required,oneof=DEFAULT FIXED_AMOUNTS OVERRIDE"`
	OverrideSplitRuleID string `json:"override_split_rule_id"`
}

func (h *InstanceHandler) UpdateFieldValue(c *gin.Context) {
	var req updateFieldValueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondBadRequest(c, "invalid amount: "+req.Amount)
		return
	}
	fv, err := h.instances.UpdateFieldValue(c.Request.Context(), c.Param("id"),
		amount, req.Note, req.EntryDate, models.SplitMode(req.SplitMode), req.OverrideSplitRuleID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, fv)
}

func (h *InstanceHandler) DeleteFieldValue(c *gin.Context) {
	if err := h.instances.DeleteFieldValue(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "field value deleted")
}
