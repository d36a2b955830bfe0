package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/egannguyen/jewellery-storefront/internal/money"
)

const exportSheet = "Orders"

var exportHeadings = []any{
	"Order ID", "Placed At", "Status", "Product", "Variant", "Variant Key",
	"Engraving", "Quantity", "Unit Price (minor)", "Unit Price", "Order Total", "Currency",
}

// ExportOrders writes the most recent orders as an xlsx workbook, one row
// per order item.
func (s *OrderService) ExportOrders(ctx context.Context, w io.Writer, limit int) error {
	orders, err := s.GetRecentOrders(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load orders for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeadings); err != nil {
		return err
	}

	row := 2
	for _, o := range orders {
		for _, it := range o.Items {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{
				o.ID, o.CreatedAt.UTC().Format("2006-01-02 15:04"), o.Status,
				it.ProductSlug, it.Label, it.VariantKey, it.Engraving, it.Quantity,
				it.UnitPrice, money.Format(it.UnitPrice, o.Currency), money.Format(o.TotalPrice, o.Currency), o.Currency,
			}
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
