package domain

import (
	"strings"
	"time"
)

const (
	ChangeName     = "nama kelas"
	ChangeCohorts  = "kategori kelas"
	ChangeTime     = "jam kelas"
	ChangeLocation = "ruang kelas"
	ChangeNote     = "catatan"
)

// DetectChanges lists the user-visible fields that differ between the stored
// session and its edited version, in display order. The note is reported
// separately because a note-only edit gets its own notification.
func DetectChanges(before ClassSession, after ClassInput, loc *time.Location) (changes []string, noteChanged bool) {
	if before.Name != after.Name {
		changes = append(changes, ChangeName)
	}
	if !sameSet(before.ClassTypes, after.ClassTypes) {
		changes = append(changes, ChangeCohorts)
	}
	if !SameDay(before.Start.In(loc), after.Start) ||
		clock(before.Start, loc) != clock(after.Start, loc) ||
		clock(before.End, loc) != clock(after.End, loc) {
		changes = append(changes, ChangeTime)
	}
	if !strings.EqualFold(before.Location, after.Location) {
		changes = append(changes, ChangeLocation)
	}
	return changes, before.Note != after.Note
}

// JoinPhrases joins with Indonesian conjunctions: "a", "a dan b", "a, b, dan c".
func JoinPhrases(phrases []string) string {
	switch len(phrases) {
	case 0:
		return ""
	case 1:
		return phrases[0]
	case 2:
		return phrases[0] + " dan " + phrases[1]
	default:
		return strings.Join(phrases[:len(phrases)-1], ", ") + ", dan " + phrases[len(phrases)-1]
	}
}

func clock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}

func sameSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, v := range b {
		right[v] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for v := range left {
		if _, ok := right[v]; !ok {
			return false
		}
	}
	return true
}
