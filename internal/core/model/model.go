package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the designation a user holds within the organisation.
type Role string

const (
	RoleEmployee       Role = "Employee"
	RoleProjectManager Role = "Project Manager"
	RoleHR             Role = "HR"
	RoleAdmin          Role = "Admin"
)

// User is the root entity; shift assignments, time tracking records and
// payroll records all reference it by ID.
type User struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	Role               Role            `json:"role"`
	AnnualSalary       decimal.Decimal `json:"annualSalary"`
	Ethnicity          string          `json:"ethnicity"`
	Nationality        string          `json:"nationality"`
	Region             string          `json:"region"`
	ReportingManagerID *int64          `json:"reportingManagerId,omitempty"`
	IRDNumber          string          `json:"irdNumber"`
	BankAccount        string          `json:"bankAccount"`
	PasswordHash       string          `json:"-"`
}

// ShiftCode identifies one of the four fixed shifts.
type ShiftCode string

const (
	ShiftMorning ShiftCode = "M"
	ShiftGeneral ShiftCode = "G"
	ShiftSwing   ShiftCode = "S"
	ShiftNight   ShiftCode = "N"
)

// Shift binds a shift code to its daily start/end window, expressed as
// minutes since midnight. A shift whose end minute is not after its start
// minute wraps past midnight (the night shift).
type Shift struct {
	Code        ShiftCode
	Name        string
	StartMinute int
	EndMinute   int
}

// ShiftCatalog is the fixed shift table. Assignments only store the code.
var ShiftCatalog = map[ShiftCode]Shift{
	ShiftMorning: {Code: ShiftMorning, Name: "Morning", StartMinute: 6 * 60, EndMinute: 14 * 60},
	ShiftGeneral: {Code: ShiftGeneral, Name: "General", StartMinute: 9 * 60, EndMinute: 17 * 60},
	ShiftSwing:   {Code: ShiftSwing, Name: "Swing", StartMinute: 14 * 60, EndMinute: 22 * 60},
	ShiftNight:   {Code: ShiftNight, Name: "Night", StartMinute: 22 * 60, EndMinute: 6 * 60},
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func (s Shift) wraps() bool { return s.EndMinute <= s.StartMinute }

// StartedBefore reports whether the shift's start time has already passed at t.
func (s Shift) StartedBefore(t time.Time) bool {
	return minuteOfDay(t) > s.StartMinute
}

// EndedBefore reports whether the shift's end time has already passed at t.
func (s Shift) EndedBefore(t time.Time) bool {
	m := minuteOfDay(t)
	if s.wraps() {
		// A wrapping shift has ended only in the gap between its end
		// and its next start.
		return m > s.EndMinute && m <= s.StartMinute
	}
	return m > s.EndMinute
}

// EndsAfter reports whether the shift's end time is still ahead at t.
func (s Shift) EndsAfter(t time.Time) bool {
	m := minuteOfDay(t)
	if s.wraps() {
		return m > s.StartMinute || m < s.EndMinute
	}
	return m < s.EndMinute
}

// ShiftAssignment places a user on a shift for one calendar week. There is at
// most one assignment per (user, week start); reassigning overwrites the code.
type ShiftAssignment struct {
	UserID     int64     `json:"userId"`
	ShiftCode  ShiftCode `json:"shiftCode"`
	WeekStart  time.Time `json:"weekStart"`
	WeekEnd    time.Time `json:"weekEnd"`
	AssignedBy int64     `json:"assignedBy"`
}

// Reason is a structured explanation for a late login or early logout.
type Reason string

const (
	ReasonPersonalEmergency        Reason = "Personal Emergency"
	ReasonMedicalIssue             Reason = "Medical Issue"
	ReasonTechnicalIssues          Reason = "Technical Issues"
	ReasonUnexpectedWorkCommitment Reason = "Unexpected Work Commitment"
	ReasonOther                    Reason = "Other"
)

var reasonMenu = []Reason{
	ReasonPersonalEmergency,
	ReasonMedicalIssue,
	ReasonTechnicalIssues,
	ReasonUnexpectedWorkCommitment,
	ReasonOther,
}

// ParseReason maps a menu selection ("1".."5") to a reason. Anything invalid
// or non-numeric falls back to Other.
func ParseReason(input string) Reason {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(reasonMenu) {
		return ReasonOther
	}
	return reasonMenu[n-1]
}

// TimeTrackingRecord is one login/logout pair for a user. A record with a nil
// LogoutTime is an open session; it is closed exactly once and never deleted.
type TimeTrackingRecord struct {
	TrackID           int64      `json:"trackId"`
	UserID            int64      `json:"userId"`
	LoginTime         time.Time  `json:"loginTime"`
	LogoutTime        *time.Time `json:"logoutTime,omitempty"`
	LateReason        *Reason    `json:"lateReason,omitempty"`
	EarlyLogoutReason *Reason    `json:"earlyLogoutReason,omitempty"`
}

// Open reports whether the session has not been closed yet.
func (r TimeTrackingRecord) Open() bool { return r.LogoutTime == nil }

// PayslipStatus tracks delivery of the rendered payslip for a payroll record.
type PayslipStatus string

const (
	PayslipPending   PayslipStatus = "PENDING"
	PayslipCompleted PayslipStatus = "COMPLETED"
	PayslipFailed    PayslipStatus = "FAILED"
)

// PayrollRecord is the immutable result of one weekly payroll computation for
// one user. All monetary values are fixed-point decimals rounded to 2dp.
type PayrollRecord struct {
	UserID              int64           `json:"userId"`
	WeekStart           time.Time       `json:"weekStart"`
	WeekEnd             time.Time       `json:"weekEnd"`
	HourlyRate          decimal.Decimal `json:"hourlyRate"`
	TotalHours          decimal.Decimal `json:"totalHours"`
	RegularPay          decimal.Decimal `json:"regularPay"`
	OvertimePay         decimal.Decimal `json:"overtimePay"`
	HolidayPay          decimal.Decimal `json:"holidayPay"`
	EthnicityBonus      decimal.Decimal `json:"ethnicityBonus"`
	NightShiftAllowance decimal.Decimal `json:"nightShiftAllowance"`
	TotalEarnings       decimal.Decimal `json:"totalEarnings"`
	TaxDeductions       decimal.Decimal `json:"taxDeductions"`
	FinalSalary         decimal.Decimal `json:"finalSalary"`
	PayslipStatus       PayslipStatus   `json:"payslipStatus"`
	PayslipRetryCount   int             `json:"payslipRetryCount"`
}

// DayHours is the aggregated worked time for one calendar day.
type DayHours struct {
	Day   time.Time
	Hours float64
}

// PayrollSummary is the batch-level outcome of a weekly payroll run.
type PayrollSummary struct {
	RunID     string    `json:"runId"`
	WeekStart time.Time `json:"weekStart"`
	WeekEnd   time.Time `json:"weekEnd"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
}

// Holiday is a calendar entry; Region, Nationality and Ethnicity are either a
// specific value or "All".
type Holiday struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Region      string    `json:"region"`
	Nationality string    `json:"nationality"`
	Ethnicity   string    `json:"ethnicity"`
}

// LeaveStatus is the review state of a leave request.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "Pending"
	LeaveApproved LeaveStatus = "Approved"
	LeaveRejected LeaveStatus = "Rejected"
)

// LeaveRequest is an employee's request for time off.
type LeaveRequest struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Reason    string      `json:"reason"`
	Status    LeaveStatus `json:"status"`
}
