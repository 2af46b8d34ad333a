package strategy

// DaysSinceTrue returns how many days ago the most recent true value occurred
// in window, ordered oldest to newest. 0 means the newest element is true.
//
// The oldest element always counts as true, so a window with no genuine true
// yields len(window)-1. The input slice is not modified. An empty window
// yields 0.
func DaysSinceTrue(window []bool) int {
	n := len(window)
	for i := n - 1; i > 0; i-- {
		if window[i] {
			return n - 1 - i
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// anyTrue reports whether window holds a genuine true value.
func anyTrue(window []bool) bool {
	for _, v := range window {
		if v {
			return true
		}
	}
	return false
}

// IsSuspended is the suspension rule: a bear signal within the last
// suspendDays days keeps the portfolio out of the market.
func IsSuspended(daysSince, suspendDays int) bool {
	return daysSince < suspendDays
}
