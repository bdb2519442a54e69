package messaging

import (
	"time"

	"payroll.service/internal/core/model"
)

// PayslipEvent is the JSON payload sent via SQS when a payroll record is
// ready for payslip rendering and delivery.
type PayslipEvent struct {
	RunID      string    `json:"runId"`
	UserID     int64     `json:"userId"`
	WeekStart  time.Time `json:"weekStart"`
	WeekEnd    time.Time `json:"weekEnd"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EarlyLogoutEvent is the JSON payload sent via SQS when an employee logs out
// before their shift end and their reporting manager should be notified.
type EarlyLogoutEvent struct {
	TrackID      int64        `json:"trackId"`
	UserID       int64        `json:"userId"`
	EmployeeName string       `json:"employeeName"`
	ManagerEmail string       `json:"managerEmail"`
	Reason       model.Reason `json:"reason"`
	LogoutTime   time.Time    `json:"logoutTime"`
}
