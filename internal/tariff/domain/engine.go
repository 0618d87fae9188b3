package tariff

import "time"

// ComputeQuote prices a stay. It is a pure function of its arguments: the same
// input and environment always yield the same quote.
func ComputeQuote(in QuoteInput, env QuoteEnv) (Quote, error) {
	if !in.ExitAt.After(in.EntryAt) {
		return Quote{}, ErrInvalidInterval
	}
	if _, err := ParseVehicleType(string(in.VehicleType)); err != nil {
		return Quote{}, err
	}
	if env.Config == nil {
		return Quote{}, ErrConfigurationMissing
	}
	if err := env.Snapshot.Validate(); err != nil {
		return Quote{}, err
	}
	loc := env.Location
	if loc == nil {
		loc = time.UTC
	}

	planID := env.Snapshot.Plan.ID
	segmenter := Segmenter{
		Location:    loc,
		CountryCode: env.CountryCode,
		Holidays:    env.Holidays,
		Snapshot:    env.Snapshot,
		VehicleType: in.VehicleType,
	}
	matcher := NewMatcher(env.Snapshot)

	quote := Quote{
		TenantID:              in.TenantID,
		LotID:                 in.LotID,
		PlanID:                planID,
		VehicleType:           in.VehicleType,
		EntryAt:               in.EntryAt,
		ExitAt:                in.ExitAt,
		TotalMinutes:          ceilMinutes(in.ExitAt.Sub(in.EntryAt)),
		Segments:              []Segment{},
		Days:                  []DayCharge{},
		LostTicket:            in.LostTicket,
		DynamicPricingEnabled: env.Config.DynamicPricingEnabled,
	}

	firstRule, err := ruleAt(segmenter, matcher, planID, in.EntryAt, in.ExitAt)
	if err != nil {
		return Quote{}, err
	}
	grace := int64(env.Config.GraceMinutes)
	if firstRule.GraceMinutes != nil {
		grace = int64(*firstRule.GraceMinutes)
	}

	if quote.TotalMinutes <= grace {
		quote.GraceMinutesApplied = quote.TotalMinutes
	} else {
		quote.GraceMinutesApplied = grace
		billFrom := in.EntryAt.Add(time.Duration(grace) * time.Minute)
		spans, err := segmenter.Split(billFrom, in.ExitAt)
		if err != nil {
			return Quote{}, err
		}
		matched := make([]TariffRule, 0, len(spans))
		for _, span := range spans {
			rule, err := matcher.MatchSpan(planID, in.VehicleType, span)
			if err != nil {
				return Quote{}, err
			}
			matched = append(matched, rule)
			quote.Segments = append(quote.Segments, priceSpan(span, rule, loc))
			quote.BillableMinutes += span.DurationMinutes
		}
		quote.Days = capDays(quote.Segments, matched, env.Config.DailyMax)
	}

	var charged int64
	for _, seg := range quote.Segments {
		quote.Subtotal += seg.Subtotal
	}
	for _, day := range quote.Days {
		charged += day.Charged
		if day.Capped {
			quote.DailyMaxApplied = true
			quote.DailyMaxAmount += day.Charged
		}
	}

	if in.LostTicket && env.Config.LostTicketFee != nil {
		quote.LostTicketFee = *env.Config.LostTicketFee
	}
	quote.Total = charged + quote.LostTicketFee
	return quote, nil
}

// ruleAt resolves the rule in force at the entry instant; its grace override
// decides the grace window for the whole stay.
func ruleAt(segmenter Segmenter, matcher Matcher, planID string, at, until time.Time) (TariffRule, error) {
	dayType := segmenter.DayTypeAt(at)
	period, _, err := segmenter.PeriodAt(dayType, at)
	if err != nil {
		if lookupErr, ok := err.(*RuleLookupError); ok {
			lookupErr.To = until
		}
		return TariffRule{}, err
	}
	return matcher.MatchSpan(planID, segmenter.VehicleType, Span{
		DayType: dayType,
		Period:  period,
		From:    at,
		To:      until,
	})
}

func priceSpan(span Span, rule TariffRule, loc *time.Location) Segment {
	units, subtotal, minimumApplied := Bill(span.DurationMinutes, rule)
	return Segment{
		DayType:              span.DayType,
		Period:               span.Period,
		Date:                 LocalDate(span.From, loc),
		StartAt:              span.From.In(loc),
		EndAt:                span.To.In(loc),
		StartTime:            TimeOfDayOf(span.From, loc).String(),
		EndTime:              TimeOfDayOf(span.To, loc).String(),
		DurationMinutes:      span.DurationMinutes,
		RuleID:               rule.ID,
		BillingUnit:          rule.BillingUnit,
		CalculatedUnits:      units,
		UnitPrice:            rule.UnitPrice,
		MinimumChargeApplied: minimumApplied,
		Subtotal:             subtotal,
	}
}

// capDays groups segment subtotals by the local date each segment starts on and
// caps every date at its daily max. The cap for a date is the rule-level daily
// max of the first segment on that date, falling back to the lot default.
func capDays(segments []Segment, rules []TariffRule, lotDefault *int64) []DayCharge {
	days := []DayCharge{}
	index := make(map[string]int)
	for n, seg := range segments {
		i, ok := index[seg.Date]
		if !ok {
			limit := lotDefault
			if rules[n].DailyMax != nil {
				limit = rules[n].DailyMax
			}
			days = append(days, DayCharge{Date: seg.Date, DailyMax: copyAmount(limit)})
			i = len(days) - 1
			index[seg.Date] = i
		}
		days[i].Subtotal += seg.Subtotal
	}
	for i := range days {
		days[i].Charged = days[i].Subtotal
		if days[i].DailyMax != nil && days[i].Subtotal > *days[i].DailyMax {
			days[i].Charged = *days[i].DailyMax
			days[i].Capped = true
		}
	}
	return days
}

func copyAmount(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
