// Package entity defines the domain models for the correlation feature.
package entity

import (
	"sort"
	"time"
)

// ReturnPoint is one trading day's fractional return (0.01 means +1%).
type ReturnPoint struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
}

// ReturnSeries is the ordered daily return history of one symbol.
// Points are ascending by date with no duplicate dates.
type ReturnSeries struct {
	Symbol string        `json:"symbol"`
	Points []ReturnPoint `json:"points"`
}

// Day truncates t to midnight UTC so that dates from different sources compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Len returns the number of observations.
func (s ReturnSeries) Len() int {
	return len(s.Points)
}

// IndexOnOrBefore returns the index of the last point dated on or before t, or -1.
func (s ReturnSeries) IndexOnOrBefore(t time.Time) int {
	t = Day(t)
	i := sort.Search(len(s.Points), func(i int) bool {
		return s.Points[i].Date.After(t)
	})
	return i - 1
}

// IndexOnOrAfter returns the index of the first point dated on or after t, or Len().
func (s ReturnSeries) IndexOnOrAfter(t time.Time) int {
	t = Day(t)
	return sort.Search(len(s.Points), func(i int) bool {
		return !s.Points[i].Date.Before(t)
	})
}

// Slice returns the points dated within [start, end].
func (s ReturnSeries) Slice(start, end time.Time) ReturnSeries {
	lo := s.IndexOnOrAfter(start)
	hi := s.IndexOnOrBefore(end) + 1
	if lo >= hi {
		return ReturnSeries{Symbol: s.Symbol}
	}
	return ReturnSeries{Symbol: s.Symbol, Points: s.Points[lo:hi]}
}

// ByDate indexes the series by date for alignment against another series.
func (s ReturnSeries) ByDate() map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		m[p.Date] = p.Return
	}
	return m
}

// CompoundPercent compounds the returns of points[from:to] into a percent change.
func (s ReturnSeries) CompoundPercent(from, to int) float64 {
	growth := 1.0
	for _, p := range s.Points[from:to] {
		growth *= 1 + p.Return
	}
	return (growth - 1) * 100
}
