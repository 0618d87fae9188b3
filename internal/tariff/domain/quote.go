package tariff

import "time"

// Segment is a priced span of a quote.
type Segment struct {
	DayType              DayType     `json:"day_type"`
	Period               Period      `json:"period"`
	Date                 string      `json:"date"`
	StartAt              time.Time   `json:"start_at"`
	EndAt                time.Time   `json:"end_at"`
	StartTime            string      `json:"start_time"`
	EndTime              string      `json:"end_time"`
	DurationMinutes      int64       `json:"duration_minutes"`
	RuleID               string      `json:"rule_id"`
	BillingUnit          BillingUnit `json:"billing_unit"`
	CalculatedUnits      int64       `json:"calculated_units"`
	UnitPrice            int64       `json:"unit_price"`
	MinimumChargeApplied bool        `json:"minimum_charge_applied"`
	Subtotal             int64       `json:"subtotal"`
}

// DayCharge is the per-calendar-day roll-up used for daily max capping.
type DayCharge struct {
	Date     string `json:"date"`
	Subtotal int64  `json:"subtotal"`
	DailyMax *int64 `json:"daily_max,omitempty"`
	Charged  int64  `json:"charged"`
	Capped   bool   `json:"capped"`
}

// Quote is the immutable result of pricing one stay.
type Quote struct {
	TenantID              string      `json:"tenant_id"`
	LotID                 string      `json:"lot_id"`
	PlanID                string      `json:"plan_id"`
	VehicleType           VehicleType `json:"vehicle_type"`
	EntryAt               time.Time   `json:"entry_at"`
	ExitAt                time.Time   `json:"exit_at"`
	TotalMinutes          int64       `json:"total_minutes"`
	GraceMinutesApplied   int64       `json:"grace_minutes_applied"`
	BillableMinutes       int64       `json:"billable_minutes"`
	Segments              []Segment   `json:"segments"`
	Days                  []DayCharge `json:"days"`
	Subtotal              int64       `json:"subtotal"`
	DailyMaxApplied       bool        `json:"daily_max_applied"`
	DailyMaxAmount        int64       `json:"daily_max_amount"`
	LostTicket            bool        `json:"lost_ticket"`
	LostTicketFee         int64       `json:"lost_ticket_fee"`
	Total                 int64       `json:"total"`
	Currency              string      `json:"currency,omitempty"`
	DynamicPricingEnabled bool        `json:"dynamic_pricing_enabled"`
}

// QuoteInput is the stay to price.
type QuoteInput struct {
	TenantID    string
	LotID       string
	VehicleType VehicleType
	EntryAt     time.Time
	ExitAt      time.Time
	LostTicket  bool
}

// QuoteEnv is everything the engine reads, loaded once per quote.
type QuoteEnv struct {
	Snapshot    *PlanSnapshot
	Config      *PricingConfig
	Location    *time.Location
	CountryCode string
	Holidays    HolidayCalendar
}
