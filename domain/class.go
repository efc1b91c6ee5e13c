// Package domain contains core concepts of the scheduling system.
// This file defines class sessions and the status engine.
// No runtime, storage, or transport logic should be added here.
package domain

import (
	"sort"
	"strings"
	"time"
)

type ClassStatus string

const (
	Belum   ClassStatus = "belum"
	Segera  ClassStatus = "segera"
	Aktif   ClassStatus = "aktif"
	Selesai ClassStatus = "selesai"
	Batal   ClassStatus = "batal"
)

// IsTerminal reports whether the status is absorbing.
func (s ClassStatus) IsTerminal() bool {
	return s == Selesai || s == Batal
}

// ClassSession is one scheduled class occurrence.
type ClassSession struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ClassTypes []string    `json:"classTypes"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Location   string      `json:"location"`
	Lecturers  []string    `json:"lecturers"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
	Status     ClassStatus `json:"status"`
}

func (c ClassSession) Cancelled() bool {
	return c.Status == Batal
}

// ComputeStatus is the status engine. soonWindow <= 0 disables Segera.
func ComputeStatus(start, end time.Time, cancelled bool, now time.Time, soonWindow time.Duration) ClassStatus {
	switch {
	case cancelled:
		return Batal
	case !now.Before(end):
		return Selesai
	case !now.Before(start):
		return Aktif
	case soonWindow > 0 && !now.Before(start.Add(-soonWindow)):
		return Segera
	default:
		return Belum
	}
}

// StatusAt computes the session status at now.
func (c ClassSession) StatusAt(now time.Time, soonWindow time.Duration) ClassStatus {
	return ComputeStatus(c.Start, c.End, c.Cancelled(), now, soonWindow)
}

// Refresh returns the status the session should hold at now.
// Terminal statuses are never recomputed.
func (c ClassSession) Refresh(now time.Time, soonWindow time.Duration) ClassStatus {
	if c.Status.IsTerminal() {
		return c.Status
	}
	return c.StatusAt(now, soonWindow)
}

// HasLecturer reports whether name teaches the session, ignoring case and spacing.
func (c ClassSession) HasLecturer(name string) bool {
	normalized := NormalizeName(name)
	for _, lecturer := range c.Lecturers {
		if NormalizeName(lecturer) == normalized {
			return true
		}
	}
	return false
}

func (c ClassSession) OpenTo(cohort string) bool {
	for _, classType := range c.ClassTypes {
		if classType == cohort {
			return true
		}
	}
	return false
}

// NormalizeName lowercases a person name and collapses inner whitespace.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SortByStart orders sessions by start time ascending, keeping insertion order on ties.
func SortByStart(classes []ClassSession) {
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].Start.Before(classes[j].Start)
	})
}

// SameDay compares calendar dates in the location of a.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// Overlaps is a strict half-open interval overlap: touching boundaries do not overlap.
func Overlaps(startA, endA, startB, endB time.Time) bool {
	return startA.Before(endB) && startB.Before(endA)
}
