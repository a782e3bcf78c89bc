package parser

import (
	"github.com/shopspring/decimal"

	"github.com/tradejournal/internal/engine"
)

// Itemized charge columns of the contract-note shape. Whatever subset is
// present gets summed into the leg's single charges figure.
var chargeColumns = []string{
	"brokerage",
	"stt",
	"exchange charges",
	"gst",
	"sebi fees",
	"stamp duty",
}

// contractNoteParser handles the contract-note export shape: a Scrip/Contract
// column, a Buy/Sell side column, separate buy and sell price columns, and
// itemized statutory charge columns.
type contractNoteParser struct {
	scrip, side, qty    int
	buyPrice, sellPrice int
	date, tradeTime     int
	charges             []int
}

func newContractNoteParser(header []string) (Parser, bool) {
	idx := columnIndex(header)

	p := &contractNoteParser{tradeTime: -1}

	scrip, ok := idx["scrip/contract"]
	if !ok {
		scrip, ok = idx["scrip"]
	}
	if !ok {
		return nil, false
	}
	p.scrip = scrip

	required := []struct {
		dst  *int
		name string
	}{
		{&p.side, "buy/sell"},
		{&p.qty, "quantity"},
		{&p.buyPrice, "buy price"},
		{&p.sellPrice, "sell price"},
		{&p.date, "trade date"},
	}
	for _, col := range required {
		i, ok := idx[col.name]
		if !ok {
			return nil, false
		}
		*col.dst = i
	}

	if i, ok := idx["trade time"]; ok {
		p.tradeTime = i
	}
	for _, name := range chargeColumns {
		if i, ok := idx[name]; ok {
			p.charges = append(p.charges, i)
		}
	}
	return p, true
}

func (p *contractNoteParser) Name() string { return "contract-note" }

func (p *contractNoteParser) Parse(records [][]string) []engine.TradeLeg {
	legs := make([]engine.TradeLeg, 0, len(records))
	for _, row := range records {
		symbol := cellAt(row, p.scrip)
		date, dateOK := parseDate(cellAt(row, p.date))
		direction, dirOK := parseDirection(cellAt(row, p.side))
		qty, qtyOK := parseQuantity(cellAt(row, p.qty))
		if symbol == "" || !dateOK || !dirOK || !qtyOK {
			continue
		}

		priceCol := p.buyPrice
		if direction == engine.DirectionSell {
			priceCol = p.sellPrice
		}
		price, priceOK := parseFloat(cellAt(row, priceCol))
		if !priceOK || price < 0 {
			continue
		}

		executedAt := date
		if p.tradeTime >= 0 {
			executedAt = parseClock(date, cellAt(row, p.tradeTime))
		}

		legs = append(legs, engine.TradeLeg{
			Symbol:       symbol,
			Direction:    direction,
			Quantity:     qty,
			Price:        price,
			Charges:      p.sumCharges(row),
			FullQuantity: qty,
			ExecutedAt:   executedAt,
		})
	}
	return legs
}

// sumCharges adds the itemized statutory columns exactly, then converts once.
// Contract notes carry six-odd small decimal figures per row; summing them as
// decimals avoids accumulating binary float error before the engine sees one
// charges number.
func (p *contractNoteParser) sumCharges(row []string) float64 {
	total := decimal.Zero
	for _, col := range p.charges {
		cell := cellAt(row, col)
		if cell == "" {
			continue
		}
		d, err := decimal.NewFromString(cell)
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	f, _ := total.Float64()
	return f
}
