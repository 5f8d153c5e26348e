package postgresengine

import (
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/trainmining/delaystats/delaystats"
)

const (
	defaultDelayTableName    = "station_delay"
	defaultInfoTableName     = "station_info"
	defaultIncidentTableName = "incident"
	dialectPostgres          = "postgres"
	colName                  = "name"
	colTransportationName    = "transportation_name"
	colDelay                 = "delay"
	colDepartureTimePlanned  = "departuretimeplanned"
	colShort                 = "short"
	colLong                  = "long"
	colDate                  = "date"
	colStation               = "station"
	colTrainNumber           = "train_number"
	colIncident              = "incident"
	castDate                 = "DATE"
	castTime                 = "TIME"
	castDoublePrecision      = "DOUBLE PRECISION"

	// second whitespace-delimited token of the raw transportation name, '' if there is none
	derivedLineSQL = `COALESCE((regexp_match(?, '^\s*\S+\s+(\S+)'))[1], '')`
	weekdaySQL     = "EXTRACT(ISODOW FROM ?) BETWEEN 1 AND 5"
	morningFrom    = "TIME '06:00'"
	morningUntil   = "TIME '09:00'"
	eveningFrom    = "TIME '16:00'"
	eveningUntil   = "TIME '19:00'"
)

type (
	sqlQueryString = string
	sqlQueryArgs   = []any
)

// fieldExpression is a select-list expression that can be aliased and compared.
type fieldExpression interface {
	exp.Expression
	exp.Aliaseable
	exp.Comparable
}

// schema maps the logical sources of delaystats templates to physical tables.
type schema struct {
	delayTable    string
	infoTable     string
	incidentTable string
}

func defaultSchema() schema {
	return schema{
		delayTable:    defaultDelayTableName,
		infoTable:     defaultInfoTableName,
		incidentTable: defaultIncidentTableName,
	}
}

func (s schema) table(source delaystats.Source) (string, error) {
	switch source {
	case delaystats.SourceDelays:
		return s.delayTable, nil
	case delaystats.SourceInfos:
		return s.infoTable, nil
	case delaystats.SourceIncidents:
		return s.incidentTable, nil
	default:
		return "", fmt.Errorf("unknown source %d", source)
	}
}

// timeColumn is the column the date and time filters apply to.
func (s schema) timeColumn(source delaystats.Source) exp.IdentifierExpression {
	if source == delaystats.SourceDelays {
		return goqu.I(colDepartureTimePlanned)
	}

	return goqu.I(colDate)
}

func derivedLine() exp.LiteralExpression {
	return goqu.L(derivedLineSQL, goqu.I(colTransportationName))
}

func (s schema) fieldExpression(field delaystats.Field) (fieldExpression, error) {
	switch field {
	case delaystats.FieldStationName, delaystats.FieldInfoName:
		return goqu.I(colName), nil
	case delaystats.FieldLine, delaystats.FieldIncidentLine:
		return derivedLine(), nil
	case delaystats.FieldAverageDelay:
		return goqu.Cast(goqu.AVG(goqu.I(colDelay)), castDoublePrecision), nil
	case delaystats.FieldInfoShort:
		return goqu.I(colShort), nil
	case delaystats.FieldInfoLong:
		return goqu.I(colLong), nil
	case delaystats.FieldInfoDate, delaystats.FieldIncidentDate:
		return goqu.Cast(goqu.I(colDate), castDate), nil
	case delaystats.FieldIncidentStation:
		return goqu.I(colStation), nil
	case delaystats.FieldTrainNumber:
		return goqu.I(colTrainNumber), nil
	case delaystats.FieldIncidentText:
		return goqu.I(colIncident), nil
	default:
		return nil, fmt.Errorf("unknown field %d", field)
	}
}

// buildSelectQuery renders a template and a filter into prepared SQL. Every filter value is
// returned as a positional argument, never as part of the SQL text.
func (s schema) buildSelectQuery(template delaystats.Template, filter delaystats.Filter) (
	sqlQueryString,
	sqlQueryArgs,
	error,
) {

	if err := template.Validate(); err != nil {
		return "", nil, errors.Join(delaystats.ErrBuildingQueryFailed, err)
	}

	if !template.Accepts(filter) {
		return "", nil, errors.Join(
			delaystats.ErrBuildingQueryFailed,
			delaystats.ErrFilterNotSupported,
			fmt.Errorf("template %q expects filter %s, got %s", template.Name(), template.FilterKind(), filter.Kind()),
		)
	}

	table, err := s.table(template.Source())
	if err != nil {
		return "", nil, errors.Join(delaystats.ErrBuildingQueryFailed, err)
	}

	selects := make([]any, 0, len(template.Fields()))
	for _, field := range template.Fields() {
		expression, fieldErr := s.fieldExpression(field)
		if fieldErr != nil {
			return "", nil, errors.Join(delaystats.ErrBuildingQueryFailed, fieldErr)
		}

		selects = append(selects, expression.As(field.Name()))
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(table).
		Prepared(true).
		Select(selects...)

	if where := s.whereClause(template.Source(), filter); where != nil {
		selectStmt = selectStmt.Where(where)
	}

	if groupBy := template.GroupBy(); len(groupBy) > 0 {
		groupings := make([]any, 0, len(groupBy))
		for _, field := range groupBy {
			expression, fieldErr := s.fieldExpression(field)
			if fieldErr != nil {
				return "", nil, errors.Join(delaystats.ErrBuildingQueryFailed, fieldErr)
			}

			groupings = append(groupings, expression)
		}

		selectStmt = selectStmt.GroupBy(groupings...)
	}

	orderings := make([]exp.OrderedExpression, 0, len(template.OrderBy()))
	for _, field := range template.OrderBy() {
		orderings = append(orderings, goqu.I(field.Name()).Asc())
	}

	selectStmt = selectStmt.Order(orderings...)

	sqlQuery, args, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", nil, errors.Join(delaystats.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, args, nil
}

func (s schema) whereClause(source delaystats.Source, filter delaystats.Filter) exp.Expression {
	ts := s.timeColumn(source)

	switch filter.Kind() {
	case delaystats.FilterExactDate:
		return goqu.Cast(ts, castDate).Eq(filter.Date().Time())

	case delaystats.FilterTimeRange:
		return goqu.And(
			ts.Gt(filter.Lower()),
			ts.Lte(filter.Upper()),
		)

	case delaystats.FilterPrimeTime:
		timeOfDay := goqu.Cast(ts, castTime)

		return goqu.And(
			goqu.L(weekdaySQL, ts),
			goqu.Or(
				goqu.And(timeOfDay.Gte(goqu.L(morningFrom)), timeOfDay.Lt(goqu.L(morningUntil))),
				goqu.And(timeOfDay.Gte(goqu.L(eveningFrom)), timeOfDay.Lt(goqu.L(eveningUntil))),
			),
		)

	case delaystats.FilterLineAndDate:
		return goqu.And(
			derivedLine().Eq(filter.Line()),
			goqu.Cast(ts, castDate).Eq(filter.Date().Time()),
		)

	default:
		return nil
	}
}
