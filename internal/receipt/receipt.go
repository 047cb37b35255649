// Package receipt renders printable PDF receipts for settled orders.
package receipt

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/boutiabderrahim-hash/shisha23mm/internal/pos"
)

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func paymentLabel(details *pos.PaymentDetails) string {
	if details == nil {
		return ""
	}
	switch details.Method {
	case pos.PaymentSingleCash:
		return "Cash"
	case pos.PaymentSingleCard:
		return "Card"
	case pos.PaymentSplit:
		return fmt.Sprintf("Split (cash %s / card %s)", formatAmount(details.CashAmount), formatAmount(details.CardAmount))
	case pos.PaymentMultiple:
		return fmt.Sprintf("Mixed (%d payments)", len(details.Payments))
	}
	return string(details.Method)
}

// Render produces the receipt PDF for an order. Orders still in progress
// print without a payment line, which covers pro-forma bills for tables that
// want to see the damage before paying.
func Render(order pos.Order, profile pos.RestaurantProfile, waiterName string) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, profile.Name, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if profile.Address != "" {
		pdf.CellFormat(0, 5, profile.Address, "", 1, "C", false, 0, "")
	}
	if profile.Phone != "" {
		pdf.CellFormat(0, 5, profile.Phone, "", 1, "C", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order #%d", order.ID), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Table %d (%s)", order.TableNumber, order.Area), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, order.Timestamp.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	if order.CustomerName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Customer: %s", order.CustomerName), "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range order.Items {
		pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s", line.Quantity, line.MenuItem.Name), "", 1, "L", false, 0, "")
		if line.Discount > 0 {
			pdf.CellFormat(0, 4, fmt.Sprintf("  Discount %.0f%%", line.Discount), "", 1, "L", false, 0, "")
		}
		for _, removed := range line.RemovedIngredients {
			pdf.CellFormat(0, 4, fmt.Sprintf("  no %s", removed), "", 1, "L", false, 0, "")
		}
		for _, options := range line.Customizations {
			for _, opt := range options {
				pdf.CellFormat(0, 4, fmt.Sprintf("  + %s", opt.Name), "", 1, "L", false, 0, "")
			}
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("  %s", formatAmount(line.Total())), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Net: %s", formatAmount(order.Subtotal)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Tax (incl.): %s", formatAmount(order.Tax)), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", formatAmount(order.Total)), "", 1, "L", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 9)
	if label := paymentLabel(order.PaymentDetails); label != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Payment: %s", label), "", 1, "L", false, 0, "")
	}
	if waiterName != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Served by: %s", waiterName), "", 1, "L", false, 0, "")
	}
	if order.Notes != "" {
		pdf.MultiCell(0, 4, fmt.Sprintf("Notes: %s", order.Notes), "", "L", false)
	}
	if profile.Footer != "" {
		pdf.Ln(2)
		pdf.CellFormat(0, 5, profile.Footer, "", 1, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
