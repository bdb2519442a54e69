package core

import "errors"

var (
	ErrNoShiftAssigned    = errors.New("tracking: no shift assigned for the current week")
	ErrShiftAlreadyEnded  = errors.New("tracking: shift has already ended")
	ErrSessionAlreadyOpen = errors.New("tracking: a session is already open today")
	ErrNoActiveSession    = errors.New("tracking: no active session")

	ErrNothingProcessed = errors.New("payroll: no eligible employees this week")
	ErrRecordNotFound   = errors.New("payroll: record not found")

	ErrUserNotFound       = errors.New("hr: user not found")
	ErrInvalidShiftCode   = errors.New("hr: invalid shift code")
	ErrInvalidCredentials = errors.New("hr: invalid credentials")
)
