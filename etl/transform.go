package etl

import "propertyetl/model"

// Transform derives the star schema from raw records. Both dimensions keep
// first-occurrence order, so the same input always yields the same keys.
func Transform(records []model.PropertyRecord) *model.StarSchema {
	regions := BuildRegionDim(records)
	return &model.StarSchema{
		Properties: BuildPropertyDim(records),
		Regions:    regions,
		Facts:      BuildFacts(records, regions),
	}
}

// BuildPropertyDim returns one row per distinct (property_id,
// construction_year, repair_year), indexed from 0.
func BuildPropertyDim(records []model.PropertyRecord) []model.PropertyDim {
	type key struct {
		propertyID, constructionYear, repairYear int64
	}
	seen := make(map[key]struct{}, len(records))
	dims := make([]model.PropertyDim, 0, len(records))
	for _, r := range records {
		k := key{r.PropertyID, r.ConstructionYear, r.RepairYear}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		dims = append(dims, model.PropertyDim{
			Index:            int64(len(dims)),
			PropertyID:       r.PropertyID,
			ConstructionYear: r.ConstructionYear,
			RepairYear:       r.RepairYear,
		})
	}
	return dims
}

// BuildRegionDim returns one row per distinct region name, region_id from 0.
func BuildRegionDim(records []model.PropertyRecord) []model.RegionDim {
	seen := make(map[string]struct{})
	dims := make([]model.RegionDim, 0)
	for _, r := range records {
		if _, ok := seen[r.RegionName]; ok {
			continue
		}
		seen[r.RegionName] = struct{}{}
		dims = append(dims, model.RegionDim{RegionID: int64(len(dims)), RegionName: r.RegionName})
	}
	return dims
}

// BuildFacts left-joins records to regions on region name. A record whose
// region is not in regions gets a nil RegionID. The raw property_id is kept
// as is.
func BuildFacts(records []model.PropertyRecord, regions []model.RegionDim) []model.PropertyFact {
	ids := make(map[string]int64, len(regions))
	for _, r := range regions {
		if _, dup := ids[r.RegionName]; !dup {
			ids[r.RegionName] = r.RegionID
		}
	}

	facts := make([]model.PropertyFact, 0, len(records))
	for _, r := range records {
		fact := model.PropertyFact{
			PropertyID:       r.PropertyID,
			ConstructionYear: r.ConstructionYear,
			RepairYear:       r.RepairYear,
			RepairCount:      r.RepairCount,
		}
		if r.TotalRepairCost != nil {
			cost := *r.TotalRepairCost
			fact.TotalRepairCost = &cost
		}
		if id, ok := ids[r.RegionName]; ok {
			fact.RegionID = &id
		}
		facts = append(facts, fact)
	}
	return facts
}
