package tariff

// Units converts minutes into chargeable units of unit using the rounding mode.
// All arithmetic is integer; NEAREST rounds halves up.
func Units(minutes int64, unit BillingUnit, rounding RoundingMode) int64 {
	size := unit.Minutes()
	if minutes <= 0 || size == 0 {
		return 0
	}
	switch rounding {
	case RoundFloor:
		return minutes / size
	case RoundNearest:
		return (2*minutes + size) / (2 * size)
	default:
		return (minutes + size - 1) / size
	}
}

// Bill prices a segment's minutes with rule and reports whether the minimum
// charge lifted the amount. Zero-minute segments cost nothing.
func Bill(minutes int64, rule TariffRule) (units int64, subtotal int64, minimumApplied bool) {
	if minutes <= 0 {
		return 0, 0, false
	}
	units = Units(minutes, rule.BillingUnit, rule.Rounding)
	subtotal = units * rule.UnitPrice
	if rule.MinimumCharge != nil && subtotal < *rule.MinimumCharge {
		return units, *rule.MinimumCharge, true
	}
	return units, subtotal, false
}
