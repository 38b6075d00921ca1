package payroll

import "time"

// Payslip is subject-owned by UserID; slips are produced by an
// external payroll run and are read-only through this API.
type Payslip struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Gross       float64   `json:"gross"`
	Deductions  float64   `json:"deductions"`
	Net         float64   `json:"net"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}
