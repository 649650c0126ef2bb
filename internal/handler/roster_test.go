package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuepai/yuepai/internal/config"
	"github.com/yuepai/yuepai/pkg/model"
)

func handlerWeekdays() []string {
	var days []string
	first := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := first; d.Month() == 3; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days = append(days, d.Format(model.DateLayout))
	}
	return days
}

func handlerInput() *model.SchedulerInput {
	tmpl := &model.ShiftTemplate{
		BaseModel:    model.BaseModel{ID: uuid.New()},
		Name:         "白班",
		StartTime:    "08:00",
		EndTime:      "16:00",
		MinEmployees: 1,
		MaxEmployees: 2,
	}
	var emps []*model.Employee
	for _, name := range []string{"张伟", "李娜"} {
		emps = append(emps, &model.Employee{
			BaseModel:   model.BaseModel{ID: uuid.New()},
			Name:        name,
			Status:      "active",
			Employment:  model.EmploymentFull,
			TemplateIDs: []uuid.UUID{tmpl.ID},
		})
	}
	return &model.SchedulerInput{
		Year: 2025, Month: 3,
		Employees:   emps,
		Templates:   []*model.ShiftTemplate{tmpl},
		WorkingDays: handlerWeekdays(),
	}
}

func testRosterHandler() *RosterHandler {
	return NewRosterHandler(&config.SchedulerConfig{
		Seed:                  7,
		LocalSearchIterations: 50,
		GAPopulation:          6,
		GAGenerations:         5,
		GAWorkers:             2,
	}, nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestRosterHandler_Generate(t *testing.T) {
	h := testRosterHandler()

	w := postJSON(t, h.Generate, &GenerateRequest{
		Input:          handlerInput(),
		SkipOptimizers: true,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Error("响应应标记成功")
	}
	if len(resp.Shifts) == 0 {
		t.Error("应返回生成的班次")
	}
	if len(resp.Violations) != 0 {
		t.Errorf("生成结果不应有硬约束违规: %v", resp.Violations)
	}
	if resp.Seed != 7 {
		t.Errorf("Seed = %d, want 7", resp.Seed)
	}
}

func TestRosterHandler_GenerateMissingInput(t *testing.T) {
	h := testRosterHandler()

	w := postJSON(t, h.Generate, &GenerateRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少输入应返回400, got %d", w.Code)
	}
}

func TestRosterHandler_GeneratePersistWithoutDB(t *testing.T) {
	h := testRosterHandler()

	w := postJSON(t, h.Generate, &GenerateRequest{
		Input:          handlerInput(),
		SkipOptimizers: true,
		Persist:        true,
	})
	if w.Code == http.StatusOK {
		t.Error("无数据库时持久化应失败")
	}
}

func TestRosterHandler_Audit(t *testing.T) {
	h := testRosterHandler()
	input := handlerInput()
	emp := input.Employees[0]

	// 同一员工同日两班，审计应报违规
	shifts := []*model.GeneratedShift{
		{ID: uuid.New(), EmployeeID: emp.ID, Date: "2025-03-10", StartTime: "08:00", EndTime: "12:00"},
		{ID: uuid.New(), EmployeeID: emp.ID, Date: "2025-03-10", StartTime: "14:00", EndTime: "18:00"},
	}

	w := postJSON(t, h.Audit, &AuditRequest{Input: input, Shifts: shifts})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Valid      bool              `json:"valid"`
		Violations []json.RawMessage `json:"violations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Valid {
		t.Error("同日双班的方案不应通过审计")
	}
	if len(resp.Violations) == 0 {
		t.Error("应返回违规清单")
	}
}

func TestStatsHandler_Fairness(t *testing.T) {
	h := NewStatsHandler()
	input := handlerInput()
	emp := input.Employees[0]

	shifts := []*model.GeneratedShift{
		{ID: uuid.New(), EmployeeID: emp.ID, Date: "2025-03-10", StartTime: "08:00", EndTime: "16:00"},
	}

	w := postJSON(t, h.Fairness, &StatsRequest{Input: input, Shifts: shifts})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}
