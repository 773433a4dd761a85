package etl

import (
	"math/rand/v2"

	"propertyetl/model"
)

var DefaultRegions = []string{"North", "South", "East", "West", "Central"}

const latestRepairYear = 2024

// GenerateRecords produces n repair records over roughly n/3 properties.
// Each property keeps one region and construction year across its records.
// The same seed always gives the same rows.
func GenerateRecords(n int, seed uint64, regions []string) []model.PropertyRecord {
	if n <= 0 {
		return nil
	}
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	type property struct {
		region string
		built  int64
	}
	props := make([]property, max(1, n/3))
	for i := range props {
		props[i] = property{
			region: regions[rng.IntN(len(regions))],
			built:  int64(1950 + rng.IntN(70)),
		}
	}

	records := make([]model.PropertyRecord, 0, n)
	for i := 0; i < n; i++ {
		id := rng.IntN(len(props))
		p := props[id]
		repairs := int64(1 + rng.IntN(5))
		records = append(records, model.PropertyRecord{
			PropertyID:       int64(id + 1),
			RegionName:       p.region,
			ConstructionYear: p.built,
			RepairYear:       p.built + 1 + int64(rng.IntN(int(latestRepairYear-p.built))),
			RepairCount:      repairs,
			TotalRepairCost:  model.NewCost(float64(repairs * int64(500+rng.IntN(4500)))),
		})
	}
	return records
}
