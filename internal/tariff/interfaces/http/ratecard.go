package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"parking-cloud/internal/observability/metrics"
	"parking-cloud/internal/tariff/application"
	tariff "parking-cloud/internal/tariff/domain"
)

// MoneyFormat renders integer minor-unit amounts for people.
type MoneyFormat struct {
	Currency string
	// Exponent is the number of minor-unit digits, 2 for USD, 0 for CLP.
	Exponent int32
}

// DefaultMoneyFormat prints amounts with two decimals and no currency code.
var DefaultMoneyFormat = MoneyFormat{Exponent: 2}

// Format renders amount, e.g. 350000 with exponent 2 as "3500.00 COP".
func (m MoneyFormat) Format(amount int64) string {
	s := decimal.New(amount, -m.Exponent).StringFixed(m.Exponent)
	if m.Currency == "" {
		return s
	}
	return s + " " + m.Currency
}

func (m MoneyFormat) optional(amount *int64) string {
	if amount == nil {
		return "-"
	}
	return m.Format(*amount)
}

func graceLabel(minutes *int) string {
	if minutes == nil {
		return "lot default"
	}
	return fmt.Sprintf("%d min", *minutes)
}

var rateCardColumns = []string{
	"Vehicle", "Day type", "Period", "Window", "Unit", "Unit price", "Minimum", "Daily max", "Grace", "Rounding", "Active",
}

func rateCardRow(rule tariff.TariffRule, money MoneyFormat) []string {
	active := "yes"
	if !rule.Active {
		active = "no"
	}
	return []string{
		string(rule.VehicleType),
		string(rule.DayType),
		string(rule.Period),
		rule.Window().String(),
		string(rule.BillingUnit),
		money.Format(rule.UnitPrice),
		money.optional(rule.MinimumCharge),
		money.optional(rule.DailyMax),
		graceLabel(rule.GraceMinutes),
		string(rule.Rounding),
		active,
	}
}

// BuildRateCardXLSX renders a plan's rules as a spreadsheet.
func BuildRateCardXLSX(detail *application.PlanDetail, money MoneyFormat, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	summarySheet := "plan"
	rulesSheet := "rules"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rulesSheet); err != nil {
		return nil, err
	}

	status := "inactive"
	if detail.Plan.Active {
		status = "active"
	}
	summary := [][2]any{
		{"Rate card", detail.Plan.Name},
		{"Plan ID", detail.Plan.ID},
		{"Lot", detail.Plan.LotID},
		{"Timezone", detail.Plan.Timezone},
		{"Status", status},
		{"Currency", money.Currency},
		{"Generated", generatedAt.UTC().Format(time.RFC3339)},
	}
	for i, row := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row[1])
	}

	for col, title := range rateCardColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(rulesSheet, cell, title)
	}
	for i, rule := range detail.Rules {
		for col, value := range rateCardRow(rule, money) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			_ = f.SetCellValue(rulesSheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRateCardPDF renders a plan's rules as a landscape A4 table.
func BuildRateCardPDF(detail *application.PlanDetail, money MoneyFormat, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Rate card: %s", detail.Plan.Name))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Lot: %s", detail.Plan.LotID))
	pdf.Ln(5)
	if detail.Plan.Timezone != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Timezone: %s", detail.Plan.Timezone))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Active: %t", detail.Plan.Active))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	widths := []float64{26, 24, 18, 28, 22, 28, 26, 26, 22, 22, 14}
	pdf.SetFont("Arial", "B", 9)
	for i, title := range rateCardColumns {
		pdf.CellFormat(widths[i], 6, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, rule := range detail.Rules {
		for i, value := range rateCardRow(rule, money) {
			align := "L"
			if i >= 5 && i <= 7 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 6, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportRateCardXLSX handles GET /lots/{lotID}/plans/{planID}/ratecard.xlsx.
func (h *Handler) ExportRateCardXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportRateCard(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", BuildRateCardXLSX)
}

// ExportRateCardPDF handles GET /lots/{lotID}/plans/{planID}/ratecard.pdf.
func (h *Handler) ExportRateCardPDF(w http.ResponseWriter, r *http.Request) {
	h.exportRateCard(w, r, "pdf", "application/pdf", BuildRateCardPDF)
}

type rateCardBuilder func(*application.PlanDetail, MoneyFormat, time.Time) ([]byte, error)

func (h *Handler) exportRateCard(w http.ResponseWriter, r *http.Request, format, contentType string, build rateCardBuilder) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveRateCardExport(format, result, time.Since(start))
	}()

	detail, err := h.loadPlan(r)
	if err != nil {
		result = metrics.ResultError
		h.respondError(w, r, err)
		return
	}
	data, err := build(detail, h.money, start)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	filename := strings.ReplaceAll(detail.Plan.Name, `"`, "") + "." + format
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
