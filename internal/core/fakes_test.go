package core

import (
	"context"
	"time"

	"payroll.service/internal/core/model"
	"payroll.service/internal/ports/messaging"
)

// fakeRepo is an in-memory stand-in for the Postgres repository. Only the
// behavior the engine under test touches needs to be populated.
type fakeRepo struct {
	users       map[int64]model.User
	openSession *model.TimeTrackingRecord
	anySession  *model.TimeTrackingRecord
	shift       *model.ShiftAssignment
	dayHours    map[int64][]model.DayHours
	holidays    int
	nightShifts map[int64]int
	history     []model.PayrollRecord

	insertTrackID  int64
	insertErr      error
	insertedLate   *model.Reason
	closedTrackIDs []int64
	closedReasons  []*model.Reason
	batches        [][]model.PayrollRecord
	assignments    []model.ShiftAssignment
	createdUsers   []model.User
	deletedUsers   []int64
	addedHolidays  []model.Holiday
	leaveRequests  []model.LeaveRequest
	leaveDecisions map[int64]model.LeaveStatus
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:          map[int64]model.User{},
		dayHours:       map[int64][]model.DayHours{},
		nightShifts:    map[int64]int{},
		insertTrackID:  1,
		leaveDecisions: map[int64]model.LeaveStatus{},
	}
}

func (f *fakeRepo) FindOpenSession(ctx context.Context, userID int64, day time.Time) (*model.TimeTrackingRecord, error) {
	return f.openSession, nil
}

func (f *fakeRepo) FindAnyOpenSession(ctx context.Context, userID int64) (*model.TimeTrackingRecord, error) {
	if f.anySession != nil {
		return f.anySession, nil
	}
	return f.openSession, nil
}

func (f *fakeRepo) InsertSession(ctx context.Context, userID int64, loginTime time.Time, lateReason *model.Reason) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.insertedLate = lateReason
	return f.insertTrackID, nil
}

func (f *fakeRepo) CloseSession(ctx context.Context, trackID int64, logoutTime time.Time, reason *model.Reason) error {
	f.closedTrackIDs = append(f.closedTrackIDs, trackID)
	f.closedReasons = append(f.closedReasons, reason)
	return nil
}

func (f *fakeRepo) FindActiveShift(ctx context.Context, userID int64, asOf time.Time) (*model.ShiftAssignment, error) {
	return f.shift, nil
}

func (f *fakeRepo) UpsertShiftAssignment(ctx context.Context, a model.ShiftAssignment) error {
	f.assignments = append(f.assignments, a)
	return nil
}

func (f *fakeRepo) CountNightShifts(ctx context.Context, userID int64) (int, error) {
	return f.nightShifts[userID], nil
}

func (f *fakeRepo) SumHoursByDay(ctx context.Context, userID int64, weekStart, weekEnd time.Time) ([]model.DayHours, error) {
	return f.dayHours[userID], nil
}

func (f *fakeRepo) CountMatchingHolidays(ctx context.Context, weekStart, weekEnd time.Time, region, nationality, ethnicity string) (int, error) {
	return f.holidays, nil
}

func (f *fakeRepo) InsertPayrollRecords(ctx context.Context, records []model.PayrollRecord) error {
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeRepo) GetPayrollRecord(ctx context.Context, userID int64, weekStart time.Time) (*model.PayrollRecord, error) {
	for i := range f.history {
		if f.history[i].UserID == userID && f.history[i].WeekStart.Equal(weekStart) {
			return &f.history[i], nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListPayrollHistory(ctx context.Context, userID int64, weeks int) ([]model.PayrollRecord, error) {
	if len(f.history) > weeks {
		return f.history[:weeks], nil
	}
	return f.history, nil
}

func (f *fakeRepo) UpdatePayslipStatus(ctx context.Context, userID int64, weekStart time.Time, status model.PayslipStatus, retryCount int) error {
	return nil
}

func (f *fakeRepo) ListAllUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeRepo) FindUser(ctx context.Context, userID int64) (*model.User, error) {
	if u, ok := f.users[userID]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeRepo) CreateUser(ctx context.Context, u model.User) (int64, error) {
	f.createdUsers = append(f.createdUsers, u)
	return int64(len(f.createdUsers)), nil
}

func (f *fakeRepo) DeleteUser(ctx context.Context, userID int64) error {
	f.deletedUsers = append(f.deletedUsers, userID)
	delete(f.users, userID)
	return nil
}

func (f *fakeRepo) AddHoliday(ctx context.Context, h model.Holiday) (int64, error) {
	f.addedHolidays = append(f.addedHolidays, h)
	return int64(len(f.addedHolidays)), nil
}

func (f *fakeRepo) DeleteHoliday(ctx context.Context, holidayID int64) error { return nil }

func (f *fakeRepo) ListHolidays(ctx context.Context, ethnicity string) ([]model.Holiday, error) {
	return f.addedHolidays, nil
}

func (f *fakeRepo) SubmitLeaveRequest(ctx context.Context, lr model.LeaveRequest) (int64, error) {
	f.leaveRequests = append(f.leaveRequests, lr)
	return int64(len(f.leaveRequests)), nil
}

func (f *fakeRepo) SetLeaveStatus(ctx context.Context, requestID int64, status model.LeaveStatus) error {
	f.leaveDecisions[requestID] = status
	return nil
}

// fakeProducer records published events instead of talking to SQS.
type fakeProducer struct {
	payslips   []messaging.PayslipEvent
	alerts     []messaging.EarlyLogoutEvent
	payslipErr error
}

func (f *fakeProducer) PublishPayslip(ctx context.Context, body interface{}) error {
	if f.payslipErr != nil {
		return f.payslipErr
	}
	f.payslips = append(f.payslips, body.(messaging.PayslipEvent))
	return nil
}

func (f *fakeProducer) PublishAlert(ctx context.Context, body interface{}) error {
	f.alerts = append(f.alerts, body.(messaging.EarlyLogoutEvent))
	return nil
}

// fakeMailer records outbound mail instead of calling SES.
type fakeMailer struct {
	welcomes []string
	alertTos []string
	sendErr  error
}

func (f *fakeMailer) SendPayslip(ctx context.Context, to string, rec model.PayrollRecord, pdf []byte) error {
	return f.sendErr
}

func (f *fakeMailer) SendEarlyLogoutAlert(ctx context.Context, to, employeeName string, reason model.Reason) error {
	f.alertTos = append(f.alertTos, to)
	return f.sendErr
}

func (f *fakeMailer) SendWelcome(ctx context.Context, to string, user model.User) error {
	f.welcomes = append(f.welcomes, to)
	return f.sendErr
}
