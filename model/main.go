package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	PropertyDimTable  = "property_dim"
	RegionDimTable    = "region_dim"
	PropertyFactTable = "property_fact_table"
)

// Cost is a repair cost. It prints without an exponent and without trailing
// zeros so that integral costs read back exactly as they were written.
// A missing cost is a nil *Cost: an empty CSV cell and a NULL column.
type Cost float64

// NewCost returns a pointer to v as a Cost.
func NewCost(v float64) *Cost {
	c := Cost(v)
	return &c
}

func (c Cost) String() string {
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

func (c Cost) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cost) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return errors.New("cannot parse empty value as Cost")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as Cost: %w", s, err)
	}
	*c = Cost(f)
	return nil
}

func (c *Cost) Scan(value interface{ any }) error {
	switch v := value.(type) {
	case float64:
		*c = Cost(v)
	case int64:
		*c = Cost(v)
	case []byte:
		return c.UnmarshalText(v)
	case string:
		return c.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into Cost", value)
	}
	return nil
}

func (c Cost) Value() (driver.Value, error) {
	return float64(c), nil
}

// A PropertyRecord is one row of the input file: a single repair event
// recorded against a property.
type PropertyRecord struct {
	PropertyID       int64  `csv:"property_id"`
	RegionName       string `csv:"region_name"`
	ConstructionYear int64  `csv:"construction_year"`
	RepairYear       int64  `csv:"repair_year"`
	RepairCount      int64  `csv:"repair_count"`
	TotalRepairCost  *Cost  `csv:"total_repair_cost"`
}

// PropertyDim holds one row per distinct (property, construction year,
// repair year) triple. Index is assigned in first-occurrence order from 0.
type PropertyDim struct {
	Index            int64 `csv:"index" gorm:"column:index"`
	PropertyID       int64 `csv:"property_id" gorm:"column:property_id"`
	ConstructionYear int64 `csv:"construction_year" gorm:"column:construction_year"`
	RepairYear       int64 `csv:"repair_year" gorm:"column:repair_year"`
}

func (PropertyDim) TableName() string { return PropertyDimTable }

// RegionDim holds one row per distinct region name.
type RegionDim struct {
	RegionID   int64  `csv:"region_id" gorm:"column:region_id"`
	RegionName string `csv:"region_name" gorm:"column:region_name"`
}

func (RegionDim) TableName() string { return RegionDimTable }

// PropertyFact is an input row with its region name swapped for the region
// surrogate key. RegionID is nil when the region has no dimension row and
// TotalRepairCost is nil when the input cell was empty.
type PropertyFact struct {
	PropertyID       int64  `csv:"property_id" gorm:"column:property_id"`
	RegionID         *int64 `csv:"region_id" gorm:"column:region_id"`
	ConstructionYear int64  `csv:"construction_year" gorm:"column:construction_year"`
	RepairYear       int64  `csv:"repair_year" gorm:"column:repair_year"`
	RepairCount      int64  `csv:"repair_count" gorm:"column:repair_count"`
	TotalRepairCost  *Cost  `csv:"total_repair_cost" gorm:"column:total_repair_cost"`
}

func (PropertyFact) TableName() string { return PropertyFactTable }

// StarSchema is the full output of a transform run.
type StarSchema struct {
	Properties []PropertyDim
	Regions    []RegionDim
	Facts      []PropertyFact
}

// Table is a named set of rows together with the model that describes its
// columns. Rows is always a slice of the Model's element type.
type Table struct {
	Name  string
	Model any
	Rows  any
	Len   int
}

// Tables returns the schema's tables in load order: dimensions first.
func (s *StarSchema) Tables() []Table {
	return []Table{
		{Name: PropertyDimTable, Model: &PropertyDim{}, Rows: s.Properties, Len: len(s.Properties)},
		{Name: RegionDimTable, Model: &RegionDim{}, Rows: s.Regions, Len: len(s.Regions)},
		{Name: PropertyFactTable, Model: &PropertyFact{}, Rows: s.Facts, Len: len(s.Facts)},
	}
}
