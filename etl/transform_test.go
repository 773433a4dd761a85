package etl

import (
	"testing"

	"propertyetl/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func northRecords() []model.PropertyRecord {
	return []model.PropertyRecord{
		{PropertyID: 1, RegionName: "North", ConstructionYear: 1990, RepairYear: 2005, RepairCount: 2, TotalRepairCost: model.NewCost(5000)},
		{PropertyID: 2, RegionName: "North", ConstructionYear: 1985, RepairYear: 2010, RepairCount: 1, TotalRepairCost: model.NewCost(3000)},
	}
}

func TestTransformNorthScenario(t *testing.T) {
	schema := Transform(northRecords())

	assert.Equal(t, []model.RegionDim{{RegionID: 0, RegionName: "North"}}, schema.Regions)
	assert.Equal(t, []model.PropertyDim{
		{Index: 0, PropertyID: 1, ConstructionYear: 1990, RepairYear: 2005},
		{Index: 1, PropertyID: 2, ConstructionYear: 1985, RepairYear: 2010},
	}, schema.Properties)

	require.Len(t, schema.Facts, 2)
	for _, f := range schema.Facts {
		require.NotNil(t, f.RegionID)
		assert.Equal(t, int64(0), *f.RegionID)
	}
	assert.Equal(t, model.NewCost(5000), schema.Facts[0].TotalRepairCost)
	assert.Equal(t, int64(1), schema.Facts[1].RepairCount)
}

func TestBuildPropertyDim(t *testing.T) {
	records := []model.PropertyRecord{
		{PropertyID: 7, RegionName: "West", ConstructionYear: 2000, RepairYear: 2010},
		{PropertyID: 3, RegionName: "East", ConstructionYear: 1970, RepairYear: 1999},
		{PropertyID: 7, RegionName: "West", ConstructionYear: 2000, RepairYear: 2010, RepairCount: 4},
		{PropertyID: 7, RegionName: "West", ConstructionYear: 2000, RepairYear: 2015},
		{PropertyID: 3, RegionName: "South", ConstructionYear: 1970, RepairYear: 1999},
	}

	dims := BuildPropertyDim(records)

	assert.Equal(t, []model.PropertyDim{
		{Index: 0, PropertyID: 7, ConstructionYear: 2000, RepairYear: 2010},
		{Index: 1, PropertyID: 3, ConstructionYear: 1970, RepairYear: 1999},
		{Index: 2, PropertyID: 7, ConstructionYear: 2000, RepairYear: 2015},
	}, dims)
}

func TestBuildRegionDim(t *testing.T) {
	t.Run("first occurrence order from zero", func(t *testing.T) {
		records := []model.PropertyRecord{
			{RegionName: "South"}, {RegionName: "North"}, {RegionName: "South"},
			{RegionName: "East"}, {RegionName: "North"},
		}
		assert.Equal(t, []model.RegionDim{
			{RegionID: 0, RegionName: "South"},
			{RegionID: 1, RegionName: "North"},
			{RegionID: 2, RegionName: "East"},
		}, BuildRegionDim(records))
	})

	t.Run("empty region name is a region", func(t *testing.T) {
		dims := BuildRegionDim([]model.PropertyRecord{{RegionName: ""}, {RegionName: "North"}})
		require.Len(t, dims, 2)
		assert.Equal(t, "", dims[0].RegionName)
	})

	t.Run("no records", func(t *testing.T) {
		assert.Empty(t, BuildRegionDim(nil))
	})
}

func TestBuildFacts(t *testing.T) {
	t.Run("unknown region yields nil key", func(t *testing.T) {
		records := []model.PropertyRecord{
			{PropertyID: 1, RegionName: "North"},
			{PropertyID: 2, RegionName: "Atlantis"},
		}
		facts := BuildFacts(records, []model.RegionDim{{RegionID: 4, RegionName: "North"}})

		require.Len(t, facts, 2)
		require.NotNil(t, facts[0].RegionID)
		assert.Equal(t, int64(4), *facts[0].RegionID)
		assert.Nil(t, facts[1].RegionID)
	})

	t.Run("keeps the raw property id", func(t *testing.T) {
		records := []model.PropertyRecord{{PropertyID: 991, RegionName: "North"}}
		facts := BuildFacts(records, BuildRegionDim(records))
		assert.Equal(t, int64(991), facts[0].PropertyID)
	})
}

func TestTransformProperties(t *testing.T) {
	records := GenerateRecords(600, 42, nil)
	schema := Transform(records)

	t.Run("property dim is exactly the distinct triples", func(t *testing.T) {
		type triple struct{ id, built, repaired int64 }
		want := map[triple]bool{}
		for _, r := range records {
			want[triple{r.PropertyID, r.ConstructionYear, r.RepairYear}] = true
		}
		got := map[triple]bool{}
		for i, p := range schema.Properties {
			k := triple{p.PropertyID, p.ConstructionYear, p.RepairYear}
			assert.False(t, got[k], "duplicate %v", k)
			got[k] = true
			assert.Equal(t, int64(i), p.Index)
		}
		assert.Equal(t, want, got)
	})

	t.Run("region dim is exactly the distinct names", func(t *testing.T) {
		names := map[string]bool{}
		for _, r := range records {
			names[r.RegionName] = true
		}
		assert.Len(t, schema.Regions, len(names))
		for i, r := range schema.Regions {
			assert.Equal(t, int64(i), r.RegionID)
			assert.True(t, names[r.RegionName])
		}
	})

	t.Run("facts match input rows and region keys", func(t *testing.T) {
		require.Len(t, schema.Facts, len(records))
		ids := map[string]int64{}
		for _, r := range schema.Regions {
			ids[r.RegionName] = r.RegionID
		}
		for i, f := range schema.Facts {
			require.NotNil(t, f.RegionID)
			assert.Equal(t, ids[records[i].RegionName], *f.RegionID)
			assert.Equal(t, records[i].PropertyID, f.PropertyID)
			assert.Equal(t, records[i].TotalRepairCost, f.TotalRepairCost)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, schema, Transform(records))
	})
}

func TestGenerateRecords(t *testing.T) {
	a := GenerateRecords(50, 7, nil)
	b := GenerateRecords(50, 7, nil)
	require.Len(t, a, 50)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, GenerateRecords(50, 8, nil))

	for _, r := range a {
		assert.Contains(t, DefaultRegions, r.RegionName)
		assert.Greater(t, r.RepairYear, r.ConstructionYear)
		assert.LessOrEqual(t, r.RepairYear, int64(latestRepairYear))
		assert.Positive(t, r.RepairCount)
	}

	assert.Nil(t, GenerateRecords(0, 1, nil))
}
