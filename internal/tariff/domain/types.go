package tariff

import "strings"

// VehicleType classifies the vehicle being parked.
type VehicleType string

const (
	VehicleBicycle    VehicleType = "BICYCLE"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleCar        VehicleType = "CAR"
	VehicleTruckBus   VehicleType = "TRUCK_BUS"
)

// VehicleTypes lists every supported vehicle type in display order.
var VehicleTypes = []VehicleType{VehicleBicycle, VehicleMotorcycle, VehicleCar, VehicleTruckBus}

// ParseVehicleType normalizes a vehicle type string.
func ParseVehicleType(value string) (VehicleType, error) {
	switch v := VehicleType(strings.ToUpper(strings.TrimSpace(value))); v {
	case VehicleBicycle, VehicleMotorcycle, VehicleCar, VehicleTruckBus:
		return v, nil
	}
	return "", ErrInvalidVehicleType
}

// DayType classifies a local calendar date.
type DayType string

const (
	DayWeekday DayType = "WEEKDAY"
	DayWeekend DayType = "WEEKEND"
	DayHoliday DayType = "HOLIDAY"
)

// DayTypes lists every day type in display order.
var DayTypes = []DayType{DayWeekday, DayWeekend, DayHoliday}

// ParseDayType normalizes a day type string.
func ParseDayType(value string) (DayType, error) {
	switch v := DayType(strings.ToUpper(strings.TrimSpace(value))); v {
	case DayWeekday, DayWeekend, DayHoliday:
		return v, nil
	}
	return "", ErrInvalidDayType
}

// Period classifies a time-of-day window.
type Period string

const (
	PeriodDay   Period = "DAY"
	PeriodNight Period = "NIGHT"
)

// ParsePeriod normalizes a period string.
func ParsePeriod(value string) (Period, error) {
	switch v := Period(strings.ToUpper(strings.TrimSpace(value))); v {
	case PeriodDay, PeriodNight:
		return v, nil
	}
	return "", ErrInvalidPeriod
}

// BillingUnit is the granularity billable minutes are converted into.
type BillingUnit string

const (
	UnitMinute  BillingUnit = "MINUTE"
	UnitBlock15 BillingUnit = "BLOCK_15"
	UnitBlock30 BillingUnit = "BLOCK_30"
	UnitHour    BillingUnit = "HOUR"
	UnitDay     BillingUnit = "DAY"
)

// ParseBillingUnit normalizes a billing unit string.
func ParseBillingUnit(value string) (BillingUnit, error) {
	u := BillingUnit(strings.ToUpper(strings.TrimSpace(value)))
	if u.Minutes() == 0 {
		return "", ErrInvalidBillingUnit
	}
	return u, nil
}

// Minutes returns the length of one unit in minutes, or 0 for unknown units.
func (u BillingUnit) Minutes() int64 {
	switch u {
	case UnitMinute:
		return 1
	case UnitBlock15:
		return 15
	case UnitBlock30:
		return 30
	case UnitHour:
		return 60
	case UnitDay:
		return MinutesPerDay
	default:
		return 0
	}
}

// RoundingMode decides how a partial unit is charged.
type RoundingMode string

const (
	RoundCeil    RoundingMode = "CEIL"
	RoundFloor   RoundingMode = "FLOOR"
	RoundNearest RoundingMode = "NEAREST"
)

// ParseRoundingMode normalizes a rounding mode string.
func ParseRoundingMode(value string) (RoundingMode, error) {
	switch v := RoundingMode(strings.ToUpper(strings.TrimSpace(value))); v {
	case RoundCeil, RoundFloor, RoundNearest:
		return v, nil
	}
	return "", ErrInvalidRounding
}
