package analytics

import (
	"sort"

	"github.com/aristath/riskdesk/internal/domain"
	"github.com/aristath/riskdesk/pkg/formulas"
)

// ComputeAttribution splits portfolio return into per-position and
// per-sector contributions. prices holds live prices by ticker; a position
// without one is valued at cost basis and flagged Priced=false. A zero total
// value yields zero weights rather than an error.
//
// Only the TopPositions largest contributors are returned, but sector rows
// aggregate every position.
func ComputeAttribution(positions []domain.Position, prices map[string]float64, sectors domain.SectorLookup) Attribution {
	rows := make([]AttributionRow, 0, len(positions))
	var totalValue, totalCost float64

	for _, pos := range positions {
		shares := pos.SharesFloat()
		cost := shares * pos.CostBasisFloat()

		price, priced := prices[pos.Ticker]
		if !priced {
			price = pos.CostBasisFloat()
		}
		value := shares * price

		returnPct := 0.0
		if cost > 0 {
			returnPct = (value - cost) / cost * 100
		}

		sector := domain.DefaultSector
		if sectors != nil {
			sector = sectors.Sector(pos.Ticker)
		}

		rows = append(rows, AttributionRow{
			Ticker:       pos.Ticker,
			Sector:       sector,
			ReturnPct:    returnPct,
			CurrentPrice: price,
			CurrentValue: value,
			Priced:       priced,
		})
		totalValue += value
		totalCost += cost
	}

	for i := range rows {
		if totalValue > 0 {
			rows[i].WeightPct = rows[i].CurrentValue / totalValue * 100
		}
		rows[i].WeightedReturn = rows[i].ReturnPct * rows[i].WeightPct / 100
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].WeightedReturn > rows[j].WeightedReturn
	})

	result := Attribution{
		Sectors:        aggregateSectors(rows),
		TotalPositions: len(rows),
		TotalValue:     formulas.Round(totalValue, 2),
	}
	if totalCost > 0 {
		result.TotalReturnPct = formulas.Round((totalValue-totalCost)/totalCost*100, 2)
	}

	top := rows
	if len(top) > TopPositions {
		top = top[:TopPositions]
	}
	result.Positions = make([]AttributionRow, len(top))
	for i, row := range top {
		row.ReturnPct = formulas.Round(row.ReturnPct, 2)
		row.CurrentPrice = formulas.Round(row.CurrentPrice, 2)
		row.CurrentValue = formulas.Round(row.CurrentValue, 2)
		row.WeightPct = formulas.Round(row.WeightPct, 2)
		row.WeightedReturn = formulas.Round(row.WeightedReturn, 3)
		result.Positions[i] = row
	}

	return result
}

func aggregateSectors(rows []AttributionRow) []SectorRow {
	index := make(map[string]int)
	var sectors []SectorRow
	for _, row := range rows {
		i, ok := index[row.Sector]
		if !ok {
			i = len(sectors)
			index[row.Sector] = i
			sectors = append(sectors, SectorRow{Sector: row.Sector})
		}
		sectors[i].WeightPct += row.WeightPct
		sectors[i].WeightedReturn += row.WeightedReturn
		sectors[i].Positions++
	}

	sort.SliceStable(sectors, func(i, j int) bool {
		return sectors[i].WeightedReturn > sectors[j].WeightedReturn
	})
	for i := range sectors {
		sectors[i].WeightPct = formulas.Round(sectors[i].WeightPct, 2)
		sectors[i].WeightedReturn = formulas.Round(sectors[i].WeightedReturn, 2)
	}
	return sectors
}
