package parser

import "github.com/tradejournal/internal/engine"

// retailParser handles the retail-broker export shape: one row per execution
// with symbol/trade_date/trade_type/quantity/price columns, an optional
// execution time, and a single optional charges column.
type retailParser struct {
	symbol, date, side, qty, price int
	execTime, charges              int
}

func newRetailParser(header []string) (Parser, bool) {
	idx := columnIndex(header)

	p := &retailParser{execTime: -1, charges: -1}
	required := []struct {
		dst  *int
		name string
	}{
		{&p.symbol, "symbol"},
		{&p.date, "trade date"},
		{&p.side, "trade type"},
		{&p.qty, "quantity"},
		{&p.price, "price"},
	}
	for _, col := range required {
		i, ok := idx[col.name]
		if !ok {
			return nil, false
		}
		*col.dst = i
	}

	if i, ok := idx["order execution time"]; ok {
		p.execTime = i
	} else if i, ok := idx["trade time"]; ok {
		p.execTime = i
	}
	if i, ok := idx["charges"]; ok {
		p.charges = i
	}
	return p, true
}

func (p *retailParser) Name() string { return "retail" }

func (p *retailParser) Parse(records [][]string) []engine.TradeLeg {
	legs := make([]engine.TradeLeg, 0, len(records))
	for _, row := range records {
		symbol := cellAt(row, p.symbol)
		date, dateOK := parseDate(cellAt(row, p.date))
		direction, dirOK := parseDirection(cellAt(row, p.side))
		qty, qtyOK := parseQuantity(cellAt(row, p.qty))
		price, priceOK := parseFloat(cellAt(row, p.price))
		if symbol == "" || !dateOK || !dirOK || !qtyOK || !priceOK || price < 0 {
			continue
		}

		executedAt := date
		if p.execTime >= 0 {
			executedAt = parseClock(date, cellAt(row, p.execTime))
		}

		var charges float64
		if p.charges >= 0 {
			charges, _ = parseFloat(cellAt(row, p.charges))
		}

		legs = append(legs, engine.TradeLeg{
			Symbol:       symbol,
			Direction:    direction,
			Quantity:     qty,
			Price:        price,
			Charges:      charges,
			FullQuantity: qty,
			ExecutedAt:   executedAt,
		})
	}
	return legs
}
