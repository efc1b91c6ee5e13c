package repositories

import (
	"encoding/json"
	"fmt"
	"pajal/domain"
	"sort"
	"time"
)

// LegacyRegistrationDate is assumed for accounts stored without one.
var LegacyRegistrationDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)

// legacyClass is the version 1 shape: one record per cohort, linked by groupId.
type legacyClass struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	ClassType string             `json:"classType"`
	GroupID   string             `json:"groupId"`
	Start     time.Time          `json:"start"`
	End       time.Time          `json:"end"`
	Location  string             `json:"location"`
	Lecturers []string           `json:"lecturers"`
	Note      string             `json:"note"`
	CreatedAt *time.Time         `json:"createdAt"`
	Status    domain.ClassStatus `json:"status"`
}

// legacyUser is the version 1 account shape with a suspension flag and an
// optional registration date.
type legacyUser struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Username         string      `json:"username"`
	Role             domain.Role `json:"role"`
	NimNip           string      `json:"nim_nip"`
	ClassType        *string     `json:"classType"`
	IsSuspended      bool        `json:"isSuspended"`
	RegistrationDate *time.Time  `json:"registrationDate"`
	ProfilePic       *string     `json:"profilePic"`
	PasswordHash     string      `json:"passwordHash"`
}

// decodeClasses returns the sessions and whether a legacy shape was upgraded.
func decodeClasses(env envelope) ([]domain.ClassSession, bool, error) {
	switch env.Version {
	case classesVersion:
		var classes []domain.ClassSession
		if err := json.Unmarshal(env.Items, &classes); err != nil {
			return nil, false, err
		}
		return classes, false, nil
	case 1:
		var legacy []legacyClass
		if err := json.Unmarshal(env.Items, &legacy); err != nil {
			return nil, false, err
		}
		return mergeLegacyClasses(legacy), true, nil
	default:
		return nil, false, fmt.Errorf("unknown classes version %d", env.Version)
	}
}

// mergeLegacyClasses folds records sharing a group key into one session
// whose cohort set is the sorted union. Ungrouped records stay alone.
func mergeLegacyClasses(legacy []legacyClass) []domain.ClassSession {
	var classes []domain.ClassSession
	groups := make(map[string][]legacyClass)
	var order []string

	for _, cls := range legacy {
		if cls.GroupID == "" {
			classes = append(classes, fromLegacy(cls, []string{cls.ClassType}))
			continue
		}
		if _, ok := groups[cls.GroupID]; !ok {
			order = append(order, cls.GroupID)
		}
		groups[cls.GroupID] = append(groups[cls.GroupID], cls)
	}

	for _, groupID := range order {
		group := groups[groupID]
		set := domain.NewIDSet()
		for _, cls := range group {
			if cls.ClassType != "" {
				set.Add(cls.ClassType)
			}
		}
		classes = append(classes, fromLegacy(group[0], set.Sorted()))
	}
	domain.SortByStart(classes)
	return classes
}

func fromLegacy(cls legacyClass, classTypes []string) domain.ClassSession {
	createdAt := cls.Start
	if cls.CreatedAt != nil {
		createdAt = *cls.CreatedAt
	}
	sort.Strings(classTypes)
	return domain.ClassSession{
		ID:         cls.ID,
		Name:       cls.Name,
		ClassTypes: classTypes,
		Start:      cls.Start,
		End:        cls.End,
		Location:   cls.Location,
		Lecturers:  cls.Lecturers,
		Note:       cls.Note,
		CreatedAt:  createdAt,
		Status:     cls.Status,
	}
}

func decodeUsers(env envelope) ([]domain.UserAccount, bool, error) {
	switch env.Version {
	case usersVersion:
		var users []domain.UserAccount
		if err := json.Unmarshal(env.Items, &users); err != nil {
			return nil, false, err
		}
		return users, false, nil
	case 1:
		var legacy []legacyUser
		if err := json.Unmarshal(env.Items, &legacy); err != nil {
			return nil, false, err
		}
		users := make([]domain.UserAccount, 0, len(legacy))
		for _, u := range legacy {
			users = append(users, upgradeUser(u))
		}
		return users, true, nil
	default:
		return nil, false, fmt.Errorf("unknown users version %d", env.Version)
	}
}

func upgradeUser(u legacyUser) domain.UserAccount {
	registration := LegacyRegistrationDate
	if u.RegistrationDate != nil {
		registration = *u.RegistrationDate
	}
	user := domain.UserAccount{
		ID:               u.ID,
		Name:             u.Name,
		Username:         u.Username,
		Role:             u.Role,
		NimNip:           u.NimNip,
		ClassType:        u.ClassType,
		RegistrationDate: registration,
		ProfilePic:       u.ProfilePic,
		PasswordHash:     u.PasswordHash,
	}
	user.State = user.SetupState()
	if u.IsSuspended {
		user.State = domain.Suspended
	}
	return user
}
