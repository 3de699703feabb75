package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/codeWith-akshay/hotel-booking-sub000/internal/domain"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/dto"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/middleware"
	"github.com/codeWith-akshay/hotel-booking-sub000/internal/service"
)

// MockSpecialDayService is a mock implementation of SpecialDayService for testing
type MockSpecialDayService struct {
	CreateRuleFunc func(ctx context.Context, actor service.Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error)
	UpdateRuleFunc func(ctx context.Context, actor service.Actor, ruleID string, req *dto.UpdateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error)
	DeleteRuleFunc func(ctx context.Context, actor service.Actor, ruleID string) error
	GetRuleFunc    func(ctx context.Context, actor service.Actor, ruleID string) (*dto.SpecialDayRuleResponse, error)
	ListRulesFunc  func(ctx context.Context, actor service.Actor, limit, offset int) ([]*dto.SpecialDayRuleResponse, error)
}

func (m *MockSpecialDayService) CreateRule(ctx context.Context, actor service.Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
	if m.CreateRuleFunc != nil {
		return m.CreateRuleFunc(ctx, actor, req)
	}
	return nil, nil
}

func (m *MockSpecialDayService) UpdateRule(ctx context.Context, actor service.Actor, ruleID string, req *dto.UpdateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
	if m.UpdateRuleFunc != nil {
		return m.UpdateRuleFunc(ctx, actor, ruleID, req)
	}
	return nil, nil
}

func (m *MockSpecialDayService) DeleteRule(ctx context.Context, actor service.Actor, ruleID string) error {
	if m.DeleteRuleFunc != nil {
		return m.DeleteRuleFunc(ctx, actor, ruleID)
	}
	return nil
}

func (m *MockSpecialDayService) GetRule(ctx context.Context, actor service.Actor, ruleID string) (*dto.SpecialDayRuleResponse, error) {
	if m.GetRuleFunc != nil {
		return m.GetRuleFunc(ctx, actor, ruleID)
	}
	return nil, nil
}

func (m *MockSpecialDayService) ListRules(ctx context.Context, actor service.Actor, limit, offset int) ([]*dto.SpecialDayRuleResponse, error) {
	if m.ListRulesFunc != nil {
		return m.ListRulesFunc(ctx, actor, limit, offset)
	}
	return nil, nil
}

func setupSpecialDayRouter(handler *SpecialDayHandler, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, "admin-001")
		c.Set(middleware.ContextKeyRole, role)
		c.Next()
	})

	admin := router.Group("/admin/special-days")
	{
		admin.POST("", handler.CreateRule)
		admin.GET("", handler.ListRules)
		admin.GET("/:id", handler.GetRule)
		admin.PUT("/:id", handler.UpdateRule)
		admin.DELETE("/:id", handler.DeleteRule)
	}
	return router
}

func TestSpecialDayHandler_CreateRule(t *testing.T) {
	tests := []struct {
		name           string
		role           string
		request        any
		mockFunc       func(ctx context.Context, actor service.Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "rate override created",
			role: middleware.RoleAdmin,
			request: dto.CreateSpecialDayRuleRequest{
				Date:      "2031-12-31",
				RuleType:  "rate_override",
				RateType:  "percent",
				RateValue: 50,
				Reason:    "new year's eve",
			},
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
				return &dto.SpecialDayRuleResponse{ID: "rule-001", Date: req.Date, RuleType: req.RuleType}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown rule type rejected",
			role:           middleware.RoleAdmin,
			request:        map[string]any{"date": "2031-12-31", "rule_type": "surge"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "guest forbidden",
			role: middleware.RoleGuest,
			request: dto.CreateSpecialDayRuleRequest{
				Date:     "2031-12-31",
				RuleType: "blocked",
				Reason:   "maintenance",
			},
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
				return nil, domain.ErrUnauthorized
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name: "unknown category rejected",
			role: middleware.RoleAdmin,
			request: dto.CreateSpecialDayRuleRequest{
				Date:           "2031-12-31",
				RuleType:       "blocked",
				RoomCategoryID: strPtr("missing"),
			},
			mockFunc: func(ctx context.Context, actor service.Actor, req *dto.CreateSpecialDayRuleRequest) (*dto.SpecialDayRuleResponse, error) {
				return nil, domain.ErrRoomCategoryNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockSpecialDayService{CreateRuleFunc: tt.mockFunc}
			handler := NewSpecialDayHandler(mockService)
			router := setupSpecialDayRouter(handler, tt.role)

			body, _ := json.Marshal(tt.request)
			req := httptest.NewRequest(http.MethodPost, "/admin/special-days", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedCode != "" {
				var response dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err == nil {
					if response.Code != tt.expectedCode {
						t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
					}
				}
			}
		})
	}
}

func TestSpecialDayHandler_DeleteRule(t *testing.T) {
	t.Run("delete existing rule", func(t *testing.T) {
		mockService := &MockSpecialDayService{}
		handler := NewSpecialDayHandler(mockService)
		router := setupSpecialDayRouter(handler, middleware.RoleAdmin)

		req := httptest.NewRequest(http.MethodDelete, "/admin/special-days/rule-001", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("delete missing rule", func(t *testing.T) {
		mockService := &MockSpecialDayService{
			DeleteRuleFunc: func(ctx context.Context, actor service.Actor, ruleID string) error {
				return domain.ErrSpecialDayRuleNotFound
			},
		}
		handler := NewSpecialDayHandler(mockService)
		router := setupSpecialDayRouter(handler, middleware.RoleAdmin)

		req := httptest.NewRequest(http.MethodDelete, "/admin/special-days/missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func strPtr(s string) *string {
	return &s
}
