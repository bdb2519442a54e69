// Package payslip renders computed payroll records into PDF documents. It is
// pure apart from the font asset loaded at construction time.
package payslip

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"

	"payroll.service/internal/core/model"
)

// ErrFontAsset means the configured UTF-8 font file is missing; rendering
// cannot start at all in that case.
var ErrFontAsset = errors.New("payslip: font asset not found")

// labelSet is one language's captions for the payslip.
type labelSet struct {
	Title         string
	Employee      string
	Designation   string
	IRDNumber     string
	BankAccount   string
	Period        string
	HourlyRate    string
	TotalHours    string
	RegularPay    string
	OvertimePay   string
	HolidayPay    string
	Bonus         string
	Allowance     string
	TotalEarnings string
	Tax           string
	NetPay        string
}

var englishLabels = labelSet{
	Title:         "Payslip",
	Employee:      "Employee",
	Designation:   "Designation",
	IRDNumber:     "IRD Number",
	BankAccount:   "Bank Account",
	Period:        "Pay Period",
	HourlyRate:    "Hourly Rate",
	TotalHours:    "Total Hours",
	RegularPay:    "Regular Pay",
	OvertimePay:   "Overtime Pay",
	HolidayPay:    "Holiday Pay",
	Bonus:         "Equity Bonus",
	Allowance:     "Night Shift Allowance",
	TotalEarnings: "Total Earnings",
	Tax:           "Tax Deductions",
	NetPay:        "Net Salary",
}

var teReoLabels = labelSet{
	Title:         "Pukapuka Utu",
	Employee:      "Kaimahi",
	Designation:   "Tūranga",
	IRDNumber:     "Tau IRD",
	BankAccount:   "Pūkete Pēke",
	Period:        "Wā Utu",
	HourlyRate:    "Utu ia Hāora",
	TotalHours:    "Tapeke Hāora",
	RegularPay:    "Utu Auau",
	OvertimePay:   "Utu Taima Roa",
	HolidayPay:    "Utu Hararei",
	Bonus:         "Moni Āpiti",
	Allowance:     "Tahua Pō",
	TotalEarnings: "Tapeke Whiwhinga",
	Tax:           "Tāke",
	NetPay:        "Utu Mutunga",
}

// Renderer produces payslip PDFs. When the ethnicity bonus applied to a
// record, the captions switch to the Te Reo Māori set.
type Renderer struct {
	company  string
	fontPath string
}

// NewRenderer validates the optional UTF-8 font asset up front so a missing
// file aborts startup instead of the first payroll run.
func NewRenderer(company, fontPath string) (*Renderer, error) {
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFontAsset, fontPath)
		}
	}
	return &Renderer{company: company, fontPath: fontPath}, nil
}

// Render turns one payroll record plus the owner's profile into PDF bytes.
func (r *Renderer) Render(rec model.PayrollRecord, user model.User) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.fontPath != "" {
		family = "payslip"
		pdf.AddUTF8Font(family, "", r.fontPath)
		pdf.AddUTF8Font(family, "B", r.fontPath)
		tr = func(s string) string { return s }
	}

	labels := englishLabels
	if rec.EthnicityBonus.IsPositive() {
		labels = teReoLabels
	}

	period := rec.WeekStart.Format("2006-01-02") + " to " + rec.WeekEnd.Format("2006-01-02")

	pdf.AddPage()
	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, tr(r.company), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "B", 13)
	pdf.CellFormat(0, 8, tr(labels.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	identity := [][2]string{
		{labels.Employee, user.Name},
		{labels.Designation, string(user.Role)},
		{labels.IRDNumber, user.IRDNumber},
		{labels.BankAccount, user.BankAccount},
		{labels.Period, period},
	}
	for _, row := range identity {
		pdf.CellFormat(60, 7, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	earnings := [][2]string{
		{labels.HourlyRate, rec.HourlyRate.StringFixed(2)},
		{labels.TotalHours, rec.TotalHours.StringFixed(2)},
		{labels.RegularPay, rec.RegularPay.StringFixed(2)},
		{labels.OvertimePay, rec.OvertimePay.StringFixed(2)},
		{labels.HolidayPay, rec.HolidayPay.StringFixed(2)},
		{labels.Bonus, rec.EthnicityBonus.StringFixed(2)},
		{labels.Allowance, rec.NightShiftAllowance.StringFixed(2)},
		{labels.TotalEarnings, rec.TotalEarnings.StringFixed(2)},
		{labels.Tax, rec.TaxDeductions.StringFixed(2)},
	}
	for _, row := range earnings {
		pdf.CellFormat(120, 7, tr(row[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, row[1], "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(120, 8, tr(labels.NetPay), "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 8, rec.FinalSalary.StringFixed(2), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render payslip: %w", err)
	}
	return buf.Bytes(), nil
}
