package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrClockRewind = fmt.Errorf("clock cannot move backwards")
	ErrNotFound    = fmt.Errorf("key not found")

	ErrInvalidInput     = fmt.Errorf("invalid input")
	ErrPastSchedule     = fmt.Errorf("class scheduled in the past")
	ErrLeadTime         = fmt.Errorf("class scheduled too close to now")
	ErrRoomConflict     = fmt.Errorf("room already booked")
	ErrLecturerConflict = fmt.Errorf("lecturer already booked")
	ErrNotLecturer      = fmt.Errorf("only lecturers manage classes")
	ErrClassNotFound    = fmt.Errorf("class not found")

	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrUsernameTaken      = fmt.Errorf("username already taken")
	ErrUsernameTooShort   = fmt.Errorf("username too short")
	ErrNameTaken          = fmt.Errorf("name already taken")
	ErrNimNipTaken        = fmt.Errorf("nim/nip already taken")
	ErrCohortRequired     = fmt.Errorf("cohort required for students")
	ErrAdminUsernameFixed = fmt.Errorf("administrator username is fixed")
	ErrAccessDenied       = fmt.Errorf("access denied")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountSuspended   = fmt.Errorf("account suspended")
	ErrInvalidPicture     = fmt.Errorf("unsupported profile picture")
	ErrMalformedHash      = fmt.Errorf("malformed password hash")
)

// Rejection is an expected validation failure. Its message is shown to the
// user as is; the cause is one of the sentinels above.
type Rejection struct {
	Cause   error
	Message string
}

func (r Rejection) Error() string {
	return r.Message
}

func (r Rejection) Unwrap() error {
	return r.Cause
}

// Reject builds a Rejection with a formatted user-facing message.
func Reject(cause error, format string, args ...any) error {
	return Rejection{Cause: cause, Message: fmt.Sprintf(format, args...)}
}
