package domain

import (
	"encoding/json"
	"sort"
)

const DefaultReminderMinutes = 30

// IDSet is a set of class ids. It serialises as a sorted list.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	set.Add(ids...)
	return set
}

func (s IDSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Remove(ids ...string) {
	for _, id := range ids {
		delete(s, id)
	}
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// Preferences is the per-user view state. It is never shared across users.
type Preferences struct {
	UserID string `json:"userId"`
	// Reminder is the lead time in minutes; nil disables reminders.
	Reminder *int  `json:"reminder"`
	Archived IDSet `json:"archived"`
	// Hidden is scoped by role so student and lecturer semantics stay apart.
	Hidden map[Role]IDSet `json:"hidden"`
}

func NewPreferences(userID string) Preferences {
	reminder := DefaultReminderMinutes
	return Preferences{
		UserID:   userID,
		Reminder: &reminder,
		Archived: NewIDSet(),
		Hidden:   make(map[Role]IDSet),
	}
}

func (p *Preferences) HiddenFor(role Role) IDSet {
	if p.Hidden == nil {
		p.Hidden = make(map[Role]IDSet)
	}
	set, ok := p.Hidden[role]
	if !ok {
		set = NewIDSet()
		p.Hidden[role] = set
	}
	return set
}

func (p *Preferences) ArchivedSet() IDSet {
	if p.Archived == nil {
		p.Archived = NewIDSet()
	}
	return p.Archived
}
