// Package slip renders the printable payment slip handed to a customer.
package slip

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/sellbook/sellbook/internal/domain"
)

type Company struct {
	Name     string
	Phones   []string
	Location string
	Email    string
}

// InvoiceID is the short slip number: the last eight characters of the
// record id, upper-cased.
func InvoiceID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

// Render builds the slip PDF for t.
func Render(t domain.Ticket, company Company, now time.Time) ([]byte, error) {
	const op = "slip.Render"

	invoice := InvoiceID(t.ID)

	qr, err := qrPNG(fmt.Sprintf("INV:%s;PNR:%s", invoice, t.PNR))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Payment Slip "+invoice, false)
	pdf.SetCreationDate(now)
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 8, tr(company.Name))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	if len(company.Phones) > 0 {
		pdf.Cell(0, 5, tr("Phone: "+strings.Join(company.Phones, ", ")))
		pdf.Ln(5)
	}
	if company.Location != "" {
		pdf.Cell(0, 5, tr(company.Location))
		pdf.Ln(5)
	}
	if company.Email != "" {
		pdf.Cell(0, 5, tr(company.Email))
		pdf.Ln(5)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pageW, _ := pdf.GetPageSize()
	pdf.ImageOptions("qr", pageW-12-24, 12, 24, 24, false, opts, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "PAYMENT SLIP")
	pdf.Ln(10)

	rows := [][2]string{
		{"Invoice ID", invoice},
		{"Customer", t.PassengerName},
		{"Date", t.Date.String()},
		{"PNR", t.PNR},
		{"Airline", t.AirlinesName},
		{"Route", fmt.Sprintf("%s -> %s (%s)", t.Departure, t.Arrival, tripLabel(t.Trip))},
		{"Payment Method", paymentLabel(t.PaymentMethod)},
	}
	if t.PaymentMethod == domain.PaymentDeposit && t.BankReference != "" {
		rows = append(rows, [2]string{"Bank Reference", strings.TrimSpace(t.BankName + " " + t.BankReference)})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(38, 6, tr(r[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(r[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Total: AED "+t.SellingPriceAED.StringFixed(2), "T", 1, "L", false, 0, "")

	if t.DueStatus {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 30, 30)
		pdf.CellFormat(0, 7, "Due: AED "+t.DuePriceAED.StringFixed(2), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	if t.Remarks != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(0, 5, tr("Remarks: "+t.Remarks), "", "", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 4, tr(fmt.Sprintf("Thank you for travelling with %s. Issued %s.", company.Name, now.Format("2006-01-02 15:04"))), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func qrPNG(content string) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func tripLabel(t domain.Trip) string {
	if t == domain.TripRound {
		return "Round Trip"
	}
	return "One Way"
}

func paymentLabel(p domain.PaymentMethod) string {
	if p == domain.PaymentDeposit {
		return "Bank Deposit"
	}
	return "Cash"
}
