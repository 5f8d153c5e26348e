package delaystats

import (
	"errors"
	"fmt"
)

// ColumnType is the Go-side type a result column is converted into.
type ColumnType uint8

const (
	ColumnText ColumnType = iota + 1
	ColumnFloat
	ColumnInteger
	ColumnDate
)

func (t ColumnType) String() string {
	switch t {
	case ColumnText:
		return "text"
	case ColumnFloat:
		return "float"
	case ColumnInteger:
		return "integer"
	case ColumnDate:
		return "date"
	default:
		return "unknown"
	}
}

// Source names one of the logical tables the statistics are read from.
// Engines map a Source to a physical table name.
type Source uint8

const (
	SourceDelays Source = iota + 1
	SourceInfos
	SourceIncidents
)

func (s Source) String() string {
	switch s {
	case SourceDelays:
		return "delays"
	case SourceInfos:
		return "infos"
	case SourceIncidents:
		return "incidents"
	default:
		return "unknown"
	}
}

// Field is one logical output column of a Template.
type Field uint8

const (
	// FieldStationName is the observation's station name.
	FieldStationName Field = iota + 1
	// FieldLine is the line derived from the raw transportation name, see DeriveLine.
	FieldLine
	// FieldAverageDelay is the mean delay over the template's grouping key.
	FieldAverageDelay

	FieldInfoName
	FieldInfoShort
	FieldInfoLong
	FieldInfoDate

	FieldIncidentStation
	FieldIncidentLine
	FieldTrainNumber
	FieldIncidentText
	FieldIncidentDate
)

type fieldSpec struct {
	name      string
	column    ColumnType
	nullable  bool
	aggregate bool
}

var fieldSpecs = map[Field]fieldSpec{
	FieldStationName:     {name: "name", column: ColumnText},
	FieldLine:            {name: "line", column: ColumnText},
	FieldAverageDelay:    {name: "avg_delay", column: ColumnFloat, aggregate: true},
	FieldInfoName:        {name: "name", column: ColumnText},
	FieldInfoShort:       {name: "short", column: ColumnText, nullable: true},
	FieldInfoLong:        {name: "long", column: ColumnText, nullable: true},
	FieldInfoDate:        {name: "date", column: ColumnDate},
	FieldIncidentStation: {name: "station", column: ColumnText},
	FieldIncidentLine:    {name: "line", column: ColumnText},
	FieldTrainNumber:     {name: "train_number", column: ColumnInteger},
	FieldIncidentText:    {name: "incident", column: ColumnText, nullable: true},
	FieldIncidentDate:    {name: "date", column: ColumnDate},
}

// Name returns the output alias of the field.
func (f Field) Name() string {
	return fieldSpecs[f].name
}

// ColumnType returns the type the field's values are converted into.
func (f Field) ColumnType() ColumnType {
	return fieldSpecs[f].column
}

// Nullable reports whether a NULL value maps to the column type's zero value instead of failing.
func (f Field) Nullable() bool {
	return fieldSpecs[f].nullable
}

// Aggregate reports whether the field is computed over a group of observations.
func (f Field) Aggregate() bool {
	return fieldSpecs[f].aggregate
}

func (f Field) String() string {
	return fieldSpecs[f].name
}

/***** Template *****/

// Template declares one endpoint's query: the source table, the output fields, the grouping key,
// the filter kind it accepts and the ordering of the result.
//
// Templates are immutable once built and safe for concurrent use.
type Template struct {
	name    string
	source  Source
	fields  []Field
	groupBy []Field
	orderBy []Field
	filter  FilterKind
}

// StationDelayTemplate averages delays per (station name, derived line).
// Accepted kinds: FilterNone, FilterExactDate, FilterTimeRange, FilterPrimeTime.
func StationDelayTemplate(kind FilterKind) Template {
	return Template{
		name:    "station_delays_" + kind.String(),
		source:  SourceDelays,
		fields:  []Field{FieldStationName, FieldLine, FieldAverageDelay},
		groupBy: []Field{FieldStationName, FieldLine},
		orderBy: []Field{FieldStationName, FieldLine},
		filter:  kind,
	}
}

// LineDelayTemplate averages delays per derived line.
// Accepted kinds: FilterNone, FilterExactDate, FilterTimeRange, FilterPrimeTime.
func LineDelayTemplate(kind FilterKind) Template {
	return Template{
		name:    "line_delays_" + kind.String(),
		source:  SourceDelays,
		fields:  []Field{FieldLine, FieldAverageDelay},
		groupBy: []Field{FieldLine},
		orderBy: []Field{FieldLine},
		filter:  kind,
	}
}

// StationInfoTemplate lists station info notices.
// Accepted kinds: FilterNone, FilterExactDate, FilterTimeRange.
func StationInfoTemplate(kind FilterKind) Template {
	return Template{
		name:    "station_infos_" + kind.String(),
		source:  SourceInfos,
		fields:  []Field{FieldInfoName, FieldInfoShort, FieldInfoLong, FieldInfoDate},
		orderBy: []Field{FieldInfoDate, FieldInfoName},
		filter:  kind,
	}
}

// IncidentTemplate lists incidents of one derived line on one day.
func IncidentTemplate() Template {
	return Template{
		name:    "incidents_" + FilterLineAndDate.String(),
		source:  SourceIncidents,
		fields:  []Field{FieldIncidentStation, FieldIncidentLine, FieldTrainNumber, FieldIncidentText, FieldIncidentDate},
		orderBy: []Field{FieldIncidentStation, FieldTrainNumber},
		filter:  FilterLineAndDate,
	}
}

var supportedFilters = map[Source][]FilterKind{
	SourceDelays:    {FilterNone, FilterExactDate, FilterTimeRange, FilterPrimeTime},
	SourceInfos:     {FilterNone, FilterExactDate, FilterTimeRange},
	SourceIncidents: {FilterLineAndDate},
}

// Validate reports whether the template is well-formed: a known source, at least one field,
// and a filter kind the source supports.
func (t Template) Validate() error {
	if _, ok := supportedFilters[t.source]; !ok {
		return fmt.Errorf("template %q: unknown source", t.name)
	}

	if len(t.fields) == 0 {
		return fmt.Errorf("template %q: no fields", t.name)
	}

	for _, kind := range supportedFilters[t.source] {
		if kind == t.filter {
			return nil
		}
	}

	return errors.Join(
		ErrFilterNotSupported,
		fmt.Errorf("template %q: source %s does not support filter %s", t.name, t.source, t.filter),
	)
}

// Accepts reports whether a filter can be applied to the template.
func (t Template) Accepts(filter Filter) bool {
	return filter.Kind() == t.filter
}

func (t Template) Name() string {
	return t.name
}

func (t Template) Source() Source {
	return t.source
}

func (t Template) FilterKind() FilterKind {
	return t.filter
}

// Fields returns a copy of the output fields in result column order.
func (t Template) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

// GroupBy returns a copy of the grouping key; it is empty for non-aggregating templates.
func (t Template) GroupBy() []Field {
	return append([]Field(nil), t.groupBy...)
}

// OrderBy returns a copy of the ordering key.
func (t Template) OrderBy() []Field {
	return append([]Field(nil), t.orderBy...)
}

// ColumnTypes returns the column type of each output field in result column order.
func (t Template) ColumnTypes() []ColumnType {
	types := make([]ColumnType, 0, len(t.fields))
	for _, f := range t.fields {
		types = append(types, f.ColumnType())
	}

	return types
}
