package domain

import "time"

// InvoicingLocation is the single timezone used for every calendar-day
// calculation (order dates, "today", invoice dates). Argentina has no DST.
var InvoicingLocation = time.FixedZone("ART", -3*60*60)

const (
	// EligibilityWindowDays is how far back an order date may be for the
	// order to enter the pipeline.
	EligibilityWindowDays = 10

	// MaxBackdateDays is the clamp applied by CalculateInvoiceDate.
	MaxBackdateDays = 10
)

// CalendarDate truncates t to midnight in InvoicingLocation.
func CalendarDate(t time.Time) time.Time {
	local := t.In(InvoicingLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, InvoicingLocation)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	da, db := CalendarDate(a), CalendarDate(b)
	// fixed zone: every day is exactly 24h
	return int(db.Sub(da).Hours() / 24)
}

// CalculateInvoiceDate returns the order's calendar date when it falls within
// the last MaxBackdateDays days, and today minus MaxBackdateDays otherwise.
func CalculateInvoiceDate(orderTime, now time.Time) time.Time {
	return CalculateInvoiceDateWithin(orderTime, now, MaxBackdateDays)
}

// CalculateInvoiceDateWithin clamps like CalculateInvoiceDate to a window of
// maxDays, never wider than MaxBackdateDays.
func CalculateInvoiceDateWithin(orderTime, now time.Time, maxDays int) time.Time {
	maxDays = min(maxDays, MaxBackdateDays)
	orderDate := CalendarDate(orderTime)
	earliest := CalendarDate(now).AddDate(0, 0, -maxDays)
	if orderDate.Before(earliest) {
		return earliest
	}
	return orderDate
}
