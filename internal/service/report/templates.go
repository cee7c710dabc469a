package report

import (
	"text/template"

	"github.com/fleetcore/driver-completion/internal/domain"
)

type bodyData struct {
	Timestamp string
	Window    string
	Terminals []domain.TerminalSummary
	Total     domain.TerminalSummary
}

var templateFuncs = template.FuncMap{
	"percent": FormatPercent,
}

const reportBodyTemplate = `Driver Completion Report
Generated: {{.Timestamp}}
Window: {{.Window}}

{{printf "%-24s %10s %10s %10s %12s" "Terminal" "Active" "Complete" "Total" "% Complete"}}
{{range .Terminals}}{{printf "%-24s %10d %10d %10d %12s" .Name .Active .Complete .Total (percent .PercentComplete)}}
{{end}}{{with .Total}}{{printf "%-24s %10d %10d %10d %12s" .Name .Active .Complete .Total (percent .PercentComplete)}}{{end}}
`
