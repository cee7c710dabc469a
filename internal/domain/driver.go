package domain

// Employee codes used to select the report roster.
const (
	EmployeeStatusActive = "A"
	DriverFlagYes        = "Y"
	DriverTypeCompany    = "C"
)

type Terminal struct {
	TerminalID   int64  `json:"terminal_id" gorm:"column:terminal_id"`
	TerminalName string `json:"terminal_name" gorm:"column:terminal_name"`
}

// Driver is an employee projected together with the terminal they belong to.
// Columns are aliased in the roster query so the same struct scans on every dialect.
type Driver struct {
	EmployeeID   int64  `json:"employee_id" gorm:"column:employee_id"`
	DriverNo     string `json:"driver_no" gorm:"column:driver_no"`
	FirstName    string `json:"first_name" gorm:"column:first_name"`
	LastName     string `json:"last_name" gorm:"column:last_name"`
	Status       string `json:"status" gorm:"column:status"`
	IsDriver     string `json:"is_driver" gorm:"column:is_driver"`
	DriverType   string `json:"driver_type" gorm:"column:driver_type"`
	TerminalID   int64  `json:"terminal_id" gorm:"column:terminal_id"`
	TerminalName string `json:"terminal_name" gorm:"column:terminal_name"`
}

// Qualifies reports whether the employee belongs on the report roster.
func (d Driver) Qualifies() bool {
	return d.Status == EmployeeStatusActive && d.IsDriver == DriverFlagYes && d.DriverType == DriverTypeCompany
}
