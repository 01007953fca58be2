package reports

import (
	"fmt"

	"kasa-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

func buildSalesWorkbook(salesList []models.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Satışlar"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, sale := range salesList {
		customerName := ""
		if sale.Customer != nil {
			customerName = sale.Customer.Name
		}

		values := []interface{}{
			sale.InvoiceNumber,
			sale.CreatedAt.Format("2006-01-02 15:04:05"),
			customerName,
			sale.User.Name,
			sale.Subtotal,
			sale.TaxAmount,
			sale.DiscountAmount,
			sale.TotalAmount,
			string(sale.PaymentMethod),
			string(sale.Status),
		}

		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel yazılamadı: %w", err)
	}
	return buf.Bytes(), nil
}
