// Package pdf renders tax invoices from persisted invoice data. Rendering
// is out-of-band and idempotent: the document is re-derivable at any time
// and never sits on the workflow's commit path.
package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appconfig "github.com/pelletworks/pelletport/internal/config"
	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
)

type Provider interface {
	RenderInvoice(ctx context.Context, data *invoicedomain.RenderData) (io.Reader, error)
}

type InvoiceRenderer struct {
	sellerName string
}

func New(cfg appconfig.Config) Provider {
	return &InvoiceRenderer{sellerName: cfg.AppName}
}

func (r *InvoiceRenderer) RenderInvoice(ctx context.Context, data *invoicedomain.RenderData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Tax Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(8,
		text.NewCol(12, r.sellerName, props.Text{Size: 10}),
	)

	m.AddRow(18,
		col.New(6).Add(
			text.New("Invoice number: "+data.Invoice.Number, props.Text{Top: 0}),
			text.New("Date of issue: "+data.Invoice.CreatedAt.Format("02 Jan 2006"), props.Text{Top: 4}),
			text.New("Status: "+string(data.Invoice.Status), props.Text{Top: 8}),
		),
		col.New(6),
	)

	billTo := []string{"Bill to", data.BuyerName, "State: " + data.BuyerState}
	if data.BuyerGSTIN != nil {
		billTo = append(billTo, "GSTIN: "+*data.BuyerGSTIN)
	}
	buyerCol := col.New(6)
	for i, line := range billTo {
		style := props.Text{Top: float64(i * 4)}
		if i == 0 {
			style.Style = fontstyle.Bold
		}
		buyerCol.Add(text.New(line, style))
	}
	m.AddRow(30,
		buyerCol,
		col.New(6).Add(
			text.New("Dispatched from", props.Text{Style: fontstyle.Bold}),
			text.New(data.SiteName, props.Text{Top: 4}),
			text.New(data.SiteCity+", "+data.SiteState, props.Text{Top: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty (MT)", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Price / MT", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(6, data.ProductSKU+" — "+data.ProductName, props.Text{Size: 9}),
		text.NewCol(2, data.QuantityMT.String(), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.PricePMT.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, data.Invoice.Subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, data.Invoice.Subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	if data.Invoice.GSTType == "CGST_SGST" && data.Invoice.CGST != nil && data.Invoice.SGST != nil {
		half := data.Invoice.GSTRate.Div(decimal.NewFromInt(2))
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "CGST @ "+half.String()+"%", props.Text{Size: 9}),
			text.NewCol(2, data.Invoice.CGST.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "SGST @ "+half.String()+"%", props.Text{Size: 9}),
			text.NewCol(2, data.Invoice.SGST.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	} else {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, "IGST @ "+data.Invoice.GSTRate.String()+"%", props.Text{Size: 9}),
			text.NewCol(2, data.Invoice.GSTAmount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Invoice.TotalAmount.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
