package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"sentiment-lab/internal/analysis"
	"sentiment-lab/internal/domain"
)

// Export file names.
const (
	DatasetFile     = "final_dataset.csv"
	CausalityFile   = "causality_results.csv"
	CorrelationFile = "correlation.csv"
	ReportFile      = "REPORT.md"
	DecisionFile    = "DECISION_REPORT.md"
)

// TrendColumn is the dataset column holding the sentiment moving average.
const TrendColumn = "sentiment_ma7"

// ErrDatasetHeader is returned when a dataset file lacks a required column.
var ErrDatasetHeader = errors.New("dataset header missing column")

// datasetColumns is the column order of the dataset export, after date.
var datasetColumns = domain.AllFields

// RenderDatasetCSV renders the aligned series with the sentiment trend as CSV.
// trend may be nil; NaN values are written as empty cells.
func RenderDatasetCSV(rows []domain.AlignedRow, trend []float64) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date")
	for _, f := range datasetColumns {
		sb.WriteString(",")
		sb.WriteString(string(f))
	}
	sb.WriteString("," + TrendColumn + "\n")

	// Rows
	for i := range rows {
		r := &rows[i]
		sb.WriteString(r.Date.String())
		for _, f := range datasetColumns {
			v, _ := r.Value(f)
			sb.WriteString(",")
			if f == domain.FieldRecordVolume {
				sb.WriteString(strconv.Itoa(r.RecordVolume))
				continue
			}
			sb.WriteString(formatCell(v))
		}
		sb.WriteString(",")
		if i < len(trend) {
			sb.WriteString(formatCell(trend[i]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderCausalityCSV renders per-lag results as CSV.
func RenderCausalityCSV(rows []CausalityRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("lag,f_statistic,p_value,df_num,df_denom,chi2,chi2_p_value,lr,lr_p_value,obs,significant,error\n")

	// Rows
	for _, r := range rows {
		if r.Error != "" {
			sb.WriteString(fmt.Sprintf("%d,,,,,,,,,,false,%s\n", r.Lag, quoteCell(r.Error)))
			continue
		}
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.6f,%d,%d,%.6f,%.6f,%.6f,%.6f,%d,%t,\n",
			r.Lag,
			r.FStatistic,
			r.PValue,
			r.DFNum,
			r.DFDenom,
			r.Chi2,
			r.Chi2PValue,
			r.LR,
			r.LRPValue,
			r.Obs,
			r.Significant,
		))
	}

	return sb.String()
}

// RenderCorrelationCSV renders the correlation matrix with field names as
// the header row and first column.
func RenderCorrelationCSV(m *analysis.CorrelationMatrix) string {
	if m == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("field")
	for _, f := range m.Fields {
		sb.WriteString("," + string(f))
	}
	sb.WriteString("\n")

	for i, f := range m.Fields {
		sb.WriteString(string(f))
		for j := range m.Fields {
			sb.WriteString(",")
			if !math.IsNaN(m.Values[i][j]) {
				sb.WriteString(fmt.Sprintf("%.6f", m.Values[i][j]))
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// ParseDatasetCSV reads an exported dataset back into aligned rows. Extra
// columns are ignored; every aligned field plus date must be present.
func ParseDatasetCSV(r io.Reader) ([]domain.AlignedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %q", ErrDatasetHeader, "date")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	required := append([]string{"date"}, fieldNames(datasetColumns)...)
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrDatasetHeader, name)
		}
	}

	var rows []domain.AlignedRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cell := func(name string) string {
			i := index[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		date, err := civil.ParseDate(cell("date"))
		if err != nil {
			return nil, fmt.Errorf("line %d: date: %w", line, err)
		}
		row := domain.AlignedRow{Date: date}

		values := make(map[domain.Field]float64, len(datasetColumns))
		for _, f := range datasetColumns {
			v, err := strconv.ParseFloat(cell(string(f)), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f, err)
			}
			values[f] = v
		}
		row.SentimentScore = values[domain.FieldSentimentScore]
		row.RecordVolume = int(values[domain.FieldRecordVolume])
		row.Close = values[domain.FieldClose]
		row.Volume = values[domain.FieldVolume]
		row.Return = values[domain.FieldReturn]
		row.Volatility = values[domain.FieldVolatility]

		rows = append(rows, row)
	}

	return rows, nil
}

func fieldNames(fields []domain.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// formatCell writes floats in shortest round-trip form so a re-read dataset
// reproduces the exported values exactly.
func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func quoteCell(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
