package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/handler"
	"taxdesk/internal/service"
	"taxdesk/mocks"
)

func newProfileHandler() (*handler.ProfileHandler, *mocks.MockProfileService, *mocks.MockBulkService) {
	profileSvc := new(mocks.MockProfileService)
	bulkSvc := new(mocks.MockBulkService)
	return handler.NewProfileHandler(profileSvc, bulkSvc), profileSvc, bulkSvc
}

func TestProfileHandler_GetAllUserData_Self(t *testing.T) {
	h, profileSvc, _ := newProfileHandler()
	userID := uuid.New()

	profileSvc.On("GetAllUserData", mock.Anything, userID, "2024-25").Return(domain.NewProfile(userID, "2024-25"), nil)

	c, w := newContext(http.MethodGet, fmt.Sprintf("/api/v1/comprehensive/data?userId=%s&taxYear=2024-25", userID), nil)
	setAuthContext(c, userID, "user")

	h.GetAllUserData(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Comprehensive data retrieved successfully", resp.Message)
	profileSvc.AssertExpectations(t)
}

func TestProfileHandler_GetAllUserData_StaffReadsAnyone(t *testing.T) {
	h, profileSvc, _ := newProfileHandler()
	target := uuid.New()

	profileSvc.On("GetAllUserData", mock.Anything, target, "").Return(domain.NewProfile(target, ""), nil)

	c, w := newContext(http.MethodGet, "/api/v1/comprehensive/data?userId="+target.String(), nil)
	setAuthContext(c, uuid.New(), "accountant")

	h.GetAllUserData(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileHandler_GetAllUserData_UserIDErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantErr  string
	}{
		{"missing", "", http.StatusBadRequest, "MISSING_USER_ID"},
		{"malformed", "?userId=12345", http.StatusBadRequest, "INVALID_USER_ID"},
		{"someone else", "?userId=" + uuid.NewString(), http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, profileSvc, _ := newProfileHandler()

			c, w := newContext(http.MethodGet, "/api/v1/comprehensive/data"+tt.query, nil)
			setAuthContext(c, uuid.New(), "user")

			h.GetAllUserData(c)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))
			profileSvc.AssertNotCalled(t, "GetAllUserData", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProfileHandler_GetAllUserData_NoAuthContext(t *testing.T) {
	h, _, _ := newProfileHandler()

	c, w := newContext(http.MethodGet, "/api/v1/comprehensive/data?userId="+uuid.NewString(), nil)
	h.GetAllUserData(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileHandler_GetAllUserData_StoreFailure(t *testing.T) {
	h, profileSvc, _ := newProfileHandler()
	userID := uuid.New()

	profileSvc.On("GetAllUserData", mock.Anything, userID, "").Return(nil, errors.New("mongo: connection refused"))

	c, w := newContext(http.MethodGet, "/api/v1/comprehensive/data?userId="+userID.String(), nil)
	setAuthContext(c, userID, "user")

	h.GetAllUserData(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Empty(t, resp.Error.Detail)
	assert.NotContains(t, w.Body.String(), "mongo")
}

func TestProfileHandler_SaveAllUserData(t *testing.T) {
	h, profileSvc, _ := newProfileHandler()
	userID := uuid.New()

	profileSvc.On("SaveAllUserData", mock.Anything, mock.MatchedBy(func(in service.SaveProfileInput) bool {
		_, hasIncome := in.Data["incomeDetails"]
		return in.UserID == userID && in.TaxYear == "2024-25" && hasIncome
	})).Return(&domain.SaveResult{
		SavedData: map[domain.SectionGroup]domain.ProfileGroup{domain.GroupIncomeDetails: {}},
		Errors:    []domain.SectionError{{Section: "deductions", Error: "zakatDeduction expects an object"}},
	}, nil)

	body := fmt.Sprintf(`{"userId":%q,"taxYear":"2024-25","data":{"incomeDetails":{"salaryIncome":{"annualSalary":1}},"deductions":{"zakatDeduction":[]}}}`, userID)
	c, w := newContext(http.MethodPost, "/api/v1/comprehensive/data", body)
	setAuthContext(c, userID, "user")

	h.SaveAllUserData(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Comprehensive data saved with errors", resp.Message)
	profileSvc.AssertExpectations(t)
}

func TestProfileHandler_SaveAllUserData_BadRequests(t *testing.T) {
	userID := uuid.New()
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"not json", `userId=1`, "INVALID_REQUEST"},
		{"missing data", fmt.Sprintf(`{"userId":%q}`, userID), "INVALID_REQUEST"},
		{"missing userId", `{"data":{}}`, "MISSING_USER_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, profileSvc, _ := newProfileHandler()

			c, w := newContext(http.MethodPost, "/api/v1/comprehensive/data", tt.body)
			setAuthContext(c, userID, "user")

			h.SaveAllUserData(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))
			profileSvc.AssertNotCalled(t, "SaveAllUserData", mock.Anything, mock.Anything)
		})
	}
}

func TestProfileHandler_Statistics(t *testing.T) {
	h, profileSvc, _ := newProfileHandler()
	userID := uuid.New()

	profileSvc.On("Statistics", mock.Anything, userID, "2023-24").Return(&domain.ProfileStatistics{
		UserID: userID, TotalRecords: 7, ProfileCompleteness: 57,
	}, nil)

	c, w := newContext(http.MethodGet, fmt.Sprintf("/api/v1/comprehensive/statistics?userId=%s&taxYear=2023-24", userID), nil)
	setAuthContext(c, userID, "user")

	h.Statistics(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.EqualValues(t, 7, data["totalRecords"])
	assert.EqualValues(t, 57, data["profileCompleteness"])
}

func TestProfileHandler_BulkCreate(t *testing.T) {
	h, _, bulkSvc := newProfileHandler()
	actorID := uuid.New()

	bulkSvc.On("Create", mock.Anything, mock.MatchedBy(func(in service.BulkCreateInput) bool {
		return in.DataType == "bankAccounts" && len(in.Records) == 2 && in.Actor.UserID == actorID && in.Actor.Role == domain.RoleAdmin
	})).Return(&service.BulkCreateResult{DataType: "bankAccounts", CreatedCount: 2}, nil)

	body := fmt.Sprintf(`{"dataType":"bankAccounts","records":[{"userId":%q,"bank":"HBL"},{"userId":%q,"bank":"MCB"}]}`, actorID, actorID)
	c, w := newContext(http.MethodPost, "/api/v1/comprehensive/bulk/create", body)
	c.Params = gin.Params{{Key: "operation", Value: "create"}}
	setAuthContext(c, actorID, "admin")

	h.Bulk(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	bulkSvc.AssertExpectations(t)
}

func TestProfileHandler_BulkUpdatePartialFailure(t *testing.T) {
	h, _, bulkSvc := newProfileHandler()

	bulkSvc.On("Update", mock.Anything, mock.Anything).Return(&service.BulkUpdateResult{
		DataType:  "loans",
		Succeeded: 1,
		Failed:    1,
		Results: []service.BulkItemResult{
			{ID: "a", Success: true},
			{ID: "b", Error: "section record not found"},
		},
	}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/comprehensive/bulk/update",
		`{"dataType":"loans","updates":[{"id":"a","data":{"x":1}},{"id":"b","data":{"x":2}}]}`)
	c.Params = gin.Params{{Key: "operation", Value: "update"}}
	setAuthContext(c, uuid.New(), "admin")

	h.Bulk(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Records updated with errors", decodeResponse(t, w).Message)
}

func TestProfileHandler_BulkDeleteMalformedID(t *testing.T) {
	h, _, bulkSvc := newProfileHandler()

	bulkSvc.On("Delete", mock.Anything, mock.MatchedBy(func(in service.BulkDeleteInput) bool {
		return len(in.IDs) == 2
	})).Return(nil, domain.NewValidationError(domain.ErrInvalidID, `ids[1]: "abc" is not a valid id`))

	c, w := newContext(http.MethodPost, "/api/v1/comprehensive/bulk/delete",
		fmt.Sprintf(`{"dataType":"loans","ids":[%q,"abc"]}`, uuid.New()))
	c.Params = gin.Params{{Key: "operation", Value: "delete"}}
	setAuthContext(c, uuid.New(), "admin")

	h.Bulk(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
	assert.Equal(t, `ids[1]: "abc" is not a valid id`, resp.Error.Message)
}

func TestProfileHandler_BulkBadRequests(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		body      string
		wantErr   string
	}{
		{"unknown operation", "upsert", `{"dataType":"loans"}`, "INVALID_OPERATION"},
		{"missing dataType", "create", `{"records":[]}`, "INVALID_REQUEST"},
		{"not json", "delete", `[`, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, bulkSvc := newProfileHandler()

			c, w := newContext(http.MethodPost, "/api/v1/comprehensive/bulk/"+tt.operation, tt.body)
			c.Params = gin.Params{{Key: "operation", Value: tt.operation}}
			setAuthContext(c, uuid.New(), "admin")

			h.Bulk(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))
			assert.Empty(t, bulkSvc.Calls)
		})
	}
}
