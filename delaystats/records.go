package delaystats

// LineDelay is the average delay of one derived line.
type LineDelay struct {
	Line     string  `json:"line"`
	AvgDelay float64 `json:"avg_delay"`
}

// StationDelay is the average delay of one derived line at one station.
type StationDelay struct {
	Name     string  `json:"name"`
	Line     string  `json:"line"`
	AvgDelay float64 `json:"avg_delay"`
}

// StationInfo is an informational notice published for a station.
type StationInfo struct {
	Name  string `json:"name"`
	Short string `json:"short"`
	Long  string `json:"long"`
	Date  Date   `json:"date"`
}

// Incident is a reported incident of one train.
type Incident struct {
	Station     string `json:"station"`
	Line        string `json:"line"`
	TrainNumber int64  `json:"train_number"`
	Incident    string `json:"incident"`
	Date        Date   `json:"date"`
}

// RecordMapper converts one Row, positionally, into a record.
type RecordMapper[R any] func(Row) R

// MapRows converts rows into records, preserving order. It never returns nil.
func MapRows[R any](rows []Row, mapper RecordMapper[R]) []R {
	records := make([]R, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapper(row))
	}

	return records
}

// LineDelayFromRow maps a LineDelayTemplate row.
func LineDelayFromRow(row Row) LineDelay {
	return LineDelay{
		Line:     row.Text(0),
		AvgDelay: row.Float(1),
	}
}

// StationDelayFromRow maps a StationDelayTemplate row.
func StationDelayFromRow(row Row) StationDelay {
	return StationDelay{
		Name:     row.Text(0),
		Line:     row.Text(1),
		AvgDelay: row.Float(2),
	}
}

// StationInfoFromRow maps a StationInfoTemplate row.
func StationInfoFromRow(row Row) StationInfo {
	return StationInfo{
		Name:  row.Text(0),
		Short: row.Text(1),
		Long:  row.Text(2),
		Date:  row.Date(3),
	}
}

// IncidentFromRow maps an IncidentTemplate row.
func IncidentFromRow(row Row) Incident {
	return Incident{
		Station:     row.Text(0),
		Line:        row.Text(1),
		TrainNumber: row.Integer(2),
		Incident:    row.Text(3),
		Date:        row.Date(4),
	}
}
