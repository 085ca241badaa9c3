package reporting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"sentiment-lab/internal/domain"
)

// RenderConsole renders the per-lag test summary for a terminal, one block
// per lag with the SSR F, chi-squared and likelihood-ratio variants.
func RenderConsole(predictor, target domain.Field, rows []CausalityRow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Granger causality: %s -> %s\n", predictor, target))

	if len(rows) == 0 {
		sb.WriteString("no lags tested\n")
		return sb.String()
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Lag", "Test", "Statistic", "p-value", "df", "Significant"})

	for _, r := range rows {
		if r.Error != "" {
			tw.AppendRow(table.Row{r.Lag, "n/a", "", "", "", r.Error})
			tw.AppendSeparator()
			continue
		}
		sig := yesNo(r.Significant)
		tw.AppendRow(table.Row{r.Lag, "ssr F", fmt.Sprintf("%.4f", r.FStatistic), fmt.Sprintf("%.4f", r.PValue),
			fmt.Sprintf("df_denom=%d, df_num=%d", r.DFDenom, r.DFNum), sig})
		tw.AppendRow(table.Row{r.Lag, "ssr chi2", fmt.Sprintf("%.4f", r.Chi2), fmt.Sprintf("%.4f", r.Chi2PValue),
			fmt.Sprintf("df=%d", r.DFNum), ""})
		tw.AppendRow(table.Row{r.Lag, "likelihood ratio", fmt.Sprintf("%.4f", r.LR), fmt.Sprintf("%.4f", r.LRPValue),
			fmt.Sprintf("df=%d", r.DFNum), ""})
		tw.AppendSeparator()
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AutoMerge: true},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	sb.WriteString(tw.Render())
	sb.WriteString("\n")
	return sb.String()
}
