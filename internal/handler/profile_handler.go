package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"taxdesk/internal/service"
)

// ProfileHandler serves the comprehensive profile endpoints.
type ProfileHandler struct {
	profileService service.ProfileService
	bulkService    service.BulkService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService service.ProfileService, bulkService service.BulkService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, bulkService: bulkService}
}

// GetAllUserData handles GET /api/v1/comprehensive/data
// @Summary Get all profile data
// @Description Assemble every section of a user's tax profile for one tax year
// @Tags comprehensive
// @Produce json
// @Param userId query string true "User ID (UUID)"
// @Param taxYear query string false "Tax year, e.g. 2024-25"
// @Success 200 {object} Response{data=domain.Profile} "Assembled profile"
// @Failure 400 {object} ErrorResponseBody "Missing or invalid userId"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Not allowed to read this user"
// @Security BearerAuth
// @Router /comprehensive/data [get]
func (h *ProfileHandler) GetAllUserData(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("userId"))
	if !ok {
		return
	}

	profile, err := h.profileService.GetAllUserData(c.Request.Context(), userID, c.Query("taxYear"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Comprehensive data retrieved successfully", profile)
}

// SaveAllUserData handles POST /api/v1/comprehensive/data
// @Summary Save profile data
// @Description Save any subset of profile groups. Each group is saved independently and failures are reported per group.
// @Tags comprehensive
// @Accept json
// @Produce json
// @Param request body SaveProfileRequest true "Profile data keyed by group"
// @Success 200 {object} Response{data=domain.SaveResult} "Saved sections and per-group errors"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Not allowed to write this user"
// @Security BearerAuth
// @Router /comprehensive/data [post]
func (h *ProfileHandler) SaveAllUserData(c *gin.Context) {
	var req struct {
		UserID  string                     `json:"userId"`
		TaxYear string                     `json:"taxYear"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "body must be a JSON object with userId, taxYear and data")
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	if req.Data == nil {
		respondBadRequest(c, "INVALID_REQUEST", "data is required")
		return
	}

	result, err := h.profileService.SaveAllUserData(c.Request.Context(), service.SaveProfileInput{
		UserID:  userID,
		TaxYear: req.TaxYear,
		Data:    req.Data,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	msg := "Comprehensive data saved successfully"
	if len(result.Errors) > 0 {
		msg = "Comprehensive data saved with errors"
	}
	RespondOK(c, msg, result)
}

// Statistics handles GET /api/v1/comprehensive/statistics
// @Summary Profile statistics
// @Description Per-section record counts and profile completeness
// @Tags comprehensive
// @Produce json
// @Param userId query string true "User ID (UUID)"
// @Param taxYear query string false "Tax year"
// @Success 200 {object} Response{data=domain.ProfileStatistics} "Statistics"
// @Failure 400 {object} ErrorResponseBody "Missing or invalid userId"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Not allowed to read this user"
// @Security BearerAuth
// @Router /comprehensive/statistics [get]
func (h *ProfileHandler) Statistics(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("userId"))
	if !ok {
		return
	}

	stats, err := h.profileService.Statistics(c.Request.Context(), userID, c.Query("taxYear"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Statistics retrieved successfully", stats)
}

// Bulk handles POST /api/v1/comprehensive/bulk/:operation
// @Summary Bulk section operation
// @Description Create, update or delete many records of one section kind
// @Tags comprehensive
// @Accept json
// @Produce json
// @Param operation path string true "create, update or delete"
// @Param request body BulkRequest true "dataType plus records, updates or ids"
// @Success 200 {object} Response "Operation result"
// @Success 201 {object} Response{data=service.BulkCreateResult} "Records created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Record belongs to another user"
// @Security BearerAuth
// @Router /comprehensive/bulk/{operation} [post]
func (h *ProfileHandler) Bulk(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "body must be a JSON object")
		return
	}
	if req.DataType == "" {
		respondBadRequest(c, "INVALID_REQUEST", "dataType is required")
		return
	}

	ctx := c.Request.Context()
	switch op := c.Param("operation"); op {
	case service.BulkCreate:
		res, err := h.bulkService.Create(ctx, service.BulkCreateInput{Actor: actor, DataType: req.DataType, Records: req.Records})
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondCreated(c, "Records created successfully", res)
	case service.BulkUpdate:
		res, err := h.bulkService.Update(ctx, service.BulkUpdateInput{Actor: actor, DataType: req.DataType, Updates: req.Updates})
		if err != nil {
			HandleError(c, err)
			return
		}
		msg := "Records updated successfully"
		if res.Failed > 0 {
			msg = "Records updated with errors"
		}
		RespondOK(c, msg, res)
	case service.BulkDelete:
		res, err := h.bulkService.Delete(ctx, service.BulkDeleteInput{Actor: actor, DataType: req.DataType, IDs: req.IDs})
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondOK(c, "Records deleted successfully", res)
	default:
		respondBadRequest(c, "INVALID_OPERATION", "operation must be one of: create, update, delete")
	}
}
