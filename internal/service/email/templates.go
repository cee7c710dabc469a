package email

type alertData struct {
	RunID   string
	Trigger string
	Stage   string
	Time    string
}

// The alert names the run but never the report contents or its recipients.
const alertTemplate = `A server error occurred while generating the driver completion report.
Check the server logs for details.

Run:     {{.RunID}}
Trigger: {{.Trigger}}
Stage:   {{.Stage}}
Started: {{.Time}}
`
