package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/telemetry"
)

// SpecialDayHandler handles admin special day rule HTTP requests
type SpecialDayHandler struct {
	specialDayService service.SpecialDayService
}

// NewSpecialDayHandler creates a new special day handler
func NewSpecialDayHandler(specialDayService service.SpecialDayService) *SpecialDayHandler {
	return &SpecialDayHandler{
		specialDayService: specialDayService,
	}
}

// CreateRule handles POST /admin/special-days
func (h *SpecialDayHandler) CreateRule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.special_day.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateSpecialDayRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(
		attribute.String("date", req.Date),
		attribute.String("rule_type", req.RuleType),
	)

	rule, err := h.specialDayService.CreateRule(ctx, actor(c), &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.String("rule_id", rule.ID))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /admin/special-days/:id
func (h *SpecialDayHandler) UpdateRule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.special_day.update")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ruleID := c.Param("id")
	if ruleID == "" {
		span.SetStatus(codes.Error, "rule id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "rule id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	var req dto.UpdateSpecialDayRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid request",
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	span.SetAttributes(attribute.String("rule_id", ruleID))

	rule, err := h.specialDayService.UpdateRule(ctx, actor(c), ruleID, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /admin/special-days/:id
func (h *SpecialDayHandler) DeleteRule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.special_day.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ruleID := c.Param("id")
	if ruleID == "" {
		span.SetStatus(codes.Error, "rule id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "rule id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	span.SetAttributes(attribute.String("rule_id", ruleID))

	if err := h.specialDayService.DeleteRule(ctx, actor(c), ruleID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, dto.SuccessResponse{
		Success: true,
		Message: "special day rule deleted",
	})
}

// GetRule handles GET /admin/special-days/:id
func (h *SpecialDayHandler) GetRule(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.special_day.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	ruleID := c.Param("id")
	if ruleID == "" {
		span.SetStatus(codes.Error, "rule id required")
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "rule id required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	span.SetAttributes(attribute.String("rule_id", ruleID))

	rule, err := h.specialDayService.GetRule(ctx, actor(c), ruleID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, rule)
}

// ListRules handles GET /admin/special-days?limit=50&offset=0
func (h *SpecialDayHandler) ListRules(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.special_day.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	span.SetAttributes(
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	rules, err := h.specialDayService.ListRules(ctx, actor(c), limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("count", len(rules)))
	span.SetStatus(codes.Ok, "")
	c.JSON(http.StatusOK, rules)
}

// handleError maps domain errors to HTTP responses
func (h *SpecialDayHandler) handleError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "NOT_FOUND",
		})
	case domain.IsUnauthorizedError(err):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "UNAUTHORIZED",
		})
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
