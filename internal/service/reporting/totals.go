package reporting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/herd/internal/domain/models"
)

// AnimalTotal is the summed production of one animal.
type AnimalTotal struct {
	AnimalID string  `json:"animalId"`
	Tag      string  `json:"tag"`
	Name     string  `json:"name,omitempty"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

// Subtotal sums the quantity of the given rows.
func Subtotal(rows []models.ProductionView) float64 {
	sum := decimal.Zero
	for _, row := range rows {
		sum = sum.Add(decimal.NewFromFloat(row.Quantity))
	}
	return sum.InexactFloat64()
}

// TotalsByAnimal groups rows per animal, largest total first.
func TotalsByAnimal(rows []models.ProductionView) []AnimalTotal {
	type acc struct {
		AnimalTotal
		sum decimal.Decimal
	}
	order := make([]string, 0)
	byAnimal := make(map[string]*acc)

	for _, row := range rows {
		entry, ok := byAnimal[row.AnimalID]
		if !ok {
			entry = &acc{AnimalTotal: AnimalTotal{AnimalID: row.AnimalID, Tag: row.AnimalTag, Name: row.AnimalName}}
			byAnimal[row.AnimalID] = entry
			order = append(order, row.AnimalID)
		}
		entry.sum = entry.sum.Add(decimal.NewFromFloat(row.Quantity))
		entry.Count++
	}

	totals := make([]AnimalTotal, 0, len(order))
	for _, id := range order {
		entry := byAnimal[id]
		entry.Total = entry.sum.InexactFloat64()
		totals = append(totals, entry.AnimalTotal)
	}
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].Total > totals[j].Total })
	return totals
}
