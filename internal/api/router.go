package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"payroll.service/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(h *handler.Handler) *mux.Router {

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	// Time tracking
	api.HandleFunc("/sessions/login", h.StartSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/logout", h.EndSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/force-logout", h.ForceEndSession).Methods(http.MethodPost)

	// Payroll
	api.HandleFunc("/payroll/run", h.RunPayroll).Methods(http.MethodPost)
	api.HandleFunc("/payroll/payslip/{userId}", h.Payslip).Methods(http.MethodGet)
	api.HandleFunc("/payroll/history/{userId}", h.PayHistory).Methods(http.MethodGet)

	// Shift scheduling
	api.HandleFunc("/shifts", h.AssignShift).Methods(http.MethodPost)
	api.HandleFunc("/shifts/{userId}", h.ShiftSchedule).Methods(http.MethodGet)

	// HR administration
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/users", h.Onboard).Methods(http.MethodPost)
	api.HandleFunc("/users/{userId}", h.Offboard).Methods(http.MethodDelete)
	api.HandleFunc("/holidays", h.AddHoliday).Methods(http.MethodPost)
	api.HandleFunc("/holidays/{holidayId}", h.DeleteHoliday).Methods(http.MethodDelete)
	api.HandleFunc("/holidays/calendar/{userId}", h.HolidayCalendar).Methods(http.MethodGet)
	api.HandleFunc("/leave", h.ApplyLeave).Methods(http.MethodPost)
	api.HandleFunc("/leave/{requestId}/decision", h.DecideLeave).Methods(http.MethodPost)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	return r
}
