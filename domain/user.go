package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	Student       Role = "student"
	Lecturer      Role = "lecturer"
	Administrator Role = "administrator"
)

// AccountState replaces "empty nim_nip means unfinished setup" probing.
type AccountState string

const (
	Incomplete AccountState = "incomplete"
	Active     AccountState = "active"
	Suspended  AccountState = "suspended"
)

const (
	AdminUsername = "adminpajal"
	CohortPrefix  = "SK"
	MaxSemester   = 10
)

var (
	cohortPattern  = regexp.MustCompile(`^SK\d{1,2}[A-D]$`)
	sectionPattern = regexp.MustCompile(`(?i)[A-D]$`)
)

type UserAccount struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Username         string       `json:"username"`
	Role             Role         `json:"role"`
	NimNip           string       `json:"nim_nip"`
	ClassType        *string      `json:"classType"`
	State            AccountState `json:"state"`
	RegistrationDate time.Time    `json:"registrationDate"`
	ProfilePic       *string      `json:"profilePic"`
	PasswordHash     string       `json:"passwordHash"`
}

func (u UserAccount) IsSuspended() bool {
	return u.State == Suspended
}

// Cohort returns the student's cohort tag, or "" when unset.
func (u UserAccount) Cohort() string {
	if u.ClassType == nil {
		return ""
	}
	return *u.ClassType
}

// SetupState derives the state an unsuspended account should be in.
func (u UserAccount) SetupState() AccountState {
	if u.Role == Administrator {
		return Active
	}
	if strings.TrimSpace(u.NimNip) == "" {
		return Incomplete
	}
	if u.Role == Student && u.Cohort() == "" {
		return Incomplete
	}
	return Active
}

// academicPeriod splits a year into Jan-Jun (1) and Jul-Dec (2).
func academicPeriod(t time.Time) (year, period int) {
	if t.Month() <= time.June {
		return t.Year(), 1
	}
	return t.Year(), 2
}

// SemesterAt is 1 at registration and grows by one every half year.
func SemesterAt(registration, now time.Time) int {
	regYear, regPeriod := academicPeriod(registration)
	year, period := academicPeriod(now.In(registration.Location()))
	return 1 + (year-regYear)*2 + (period - regPeriod)
}

// AdvanceCohort rewrites a student's cohort tag for the semester reached at
// now, keeping the section letter. Non-students, students without a tag and
// semesters outside [1, MaxSemester] are returned unchanged. Idempotent.
func AdvanceCohort(u UserAccount, now time.Time) UserAccount {
	if u.Role != Student || u.Cohort() == "" || u.RegistrationDate.IsZero() {
		return u
	}
	semester := SemesterAt(u.RegistrationDate, now)
	if semester < 1 || semester > MaxSemester {
		return u
	}
	section := "A"
	if match := sectionPattern.FindString(u.Cohort()); match != "" {
		section = strings.ToUpper(match)
	}
	tag := fmt.Sprintf("%s%d%s", CohortPrefix, semester, section)
	u.ClassType = &tag
	return u
}
