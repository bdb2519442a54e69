package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"payroll.service/internal/core"
	"payroll.service/internal/core/model"
	"payroll.service/internal/payslip"
	"payroll.service/internal/ports/repository"
)

const dateLayout = "2006-01-02"

// Handler exposes the core engines over HTTP.
type Handler struct {
	Tracking *core.TrackingService
	Payroll  *core.PayrollService
	HR       *core.HRService
	Renderer *payslip.Renderer
	Repo     repository.Repository
}

type sessionRequest struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	trackID, err := h.Tracking.StartSession(r.Context(), req.UserID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"trackId": trackID, "message": "Login recorded."})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Tracking.EndSession(r.Context(), req.UserID, req.Reason); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logout recorded successfully."})
}

func (h *Handler) ForceEndSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	source := core.StaticReason(model.ParseReason(req.Reason))
	if err := h.Tracking.ForceEndSession(r.Context(), req.UserID, source); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Session closed."})
}

func (h *Handler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestedBy int64 `json:"requestedBy"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	summary, err := h.Payroll.RunWeeklyPayroll(r.Context(), req.RequestedBy)
	if errors.Is(err, core.ErrNothingProcessed) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Nothing processed: no employee had recorded hours this week."})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Payslip re-renders a stored payroll record as a PDF download.
func (h *Handler) Payslip(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	week, err := time.Parse(dateLayout, r.URL.Query().Get("week"))
	if err != nil {
		http.Error(w, "Invalid or missing week parameter", http.StatusBadRequest)
		return
	}

	record, err := h.Repo.GetPayrollRecord(r.Context(), userID, week)
	if err != nil {
		writeError(w, err)
		return
	}
	user, userErr := h.Repo.FindUser(r.Context(), userID)
	if userErr != nil {
		writeError(w, userErr)
		return
	}
	if record == nil || user == nil {
		writeError(w, core.ErrRecordNotFound)
		return
	}

	pdf, err := h.Renderer.Render(*record, *user)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdf)
}

func (h *Handler) PayHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	records, err := h.HR.PayHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ManagerID int64  `json:"managerId"`
		UserID    int64  `json:"userId"`
		ShiftCode string `json:"shiftCode"`
		WeekStart string `json:"weekStart"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	weekStart, err := time.Parse(dateLayout, req.WeekStart)
	if err != nil {
		weekStart = time.Now()
	}

	if err := h.HR.AssignShift(r.Context(), req.ManagerID, req.UserID, model.ShiftCode(req.ShiftCode), weekStart); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Shift assigned."})
}

func (h *Handler) ShiftSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	assignment, err := h.HR.ShiftSchedule(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req core.OnboardInput
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.TempPassword == "" || req.AnnualSalary.LessThan(decimal.Zero) {
		http.Error(w, "Name, tempPassword and a non-negative annualSalary are required", http.StatusBadRequest)
		return
	}

	userID, err := h.HR.Onboard(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"userId": userID})
}

func (h *Handler) Offboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := h.HR.Offboard(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User offboarded."})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64  `json:"userId"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.HR.Authenticate(r.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": user.ID, "role": user.Role})
}

func (h *Handler) AddHoliday(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Date        string `json:"date"`
		Region      string `json:"region"`
		Nationality string `json:"nationality"`
		Ethnicity   string `json:"ethnicity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}

	id, err := h.HR.AddHoliday(r.Context(), model.Holiday{
		Name: req.Name, Date: date,
		Region: req.Region, Nationality: req.Nationality, Ethnicity: req.Ethnicity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"holidayId": id})
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "holidayId")
	if !ok {
		return
	}
	if err := h.HR.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Holiday deleted."})
}

func (h *Handler) HolidayCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	holidays, err := h.HR.HolidayCalendar(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    int64  `json:"userId"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Reason    string `json:"reason"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	start, err1 := time.Parse(dateLayout, req.StartDate)
	end, err2 := time.Parse(dateLayout, req.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		http.Error(w, "Invalid leave dates", http.StatusBadRequest)
		return
	}

	id, err := h.HR.ApplyLeave(r.Context(), req.UserID, start, end, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"requestId": id})
}

func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "requestId")
	if !ok {
		return
	}
	var req struct {
		Approve bool `json:"approve"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.HR.DecideLeave(r.Context(), id, req.Approve); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Leave request updated."})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNoShiftAssigned),
		errors.Is(err, core.ErrNoActiveSession),
		errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrSessionAlreadyOpen):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrShiftAlreadyEnded),
		errors.Is(err, core.ErrInvalidShiftCode):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, core.ErrInvalidCredentials):
		// Deliberately generic: never reveal which credential part failed.
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	default:
		http.Error(w, "Service error processing request", http.StatusInternalServerError)
	}
}
