package parser

// Role is one semantic column meaning from the closed vocabulary.
type Role string

const (
	RoleStation           Role = "STATION"
	RoleArea              Role = "AREA"
	RolePlant             Role = "PLANT"
	RoleRobotID           Role = "ROBOT_ID"
	RoleGunID             Role = "GUN_ID"
	RoleToolID            Role = "TOOL_ID"
	RoleDeviceID          Role = "DEVICE_ID"
	RoleGunForce          Role = "GUN_FORCE"
	RoleReuseStatus       Role = "REUSE_STATUS"
	RoleRefreshmentStatus Role = "REFRESHMENT_STATUS"
	RoleSimStatus         Role = "SIM_STATUS"
	RoleSimProgress       Role = "SIM_PROGRESS"
	RolePayload           Role = "PAYLOAD"
	RoleReach             Role = "REACH"
	RoleRobotType         Role = "ROBOT_TYPE"
	RoleCycleTime         Role = "CYCLE_TIME"
	RoleComment           Role = "COMMENT"
	RoleLastModified      Role = "LAST_MODIFIED"
	RoleUnknown           Role = "UNKNOWN"
)

// Confidence is the tier attached to a role detection.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Downgrade lowers a confidence tier by one step. Substring matches
// are always one tier weaker than exact matches.
func (c Confidence) Downgrade() Confidence {
	if c == ConfidenceHigh {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// ColumnRoleDetection is the outcome for one raw header.
type ColumnRoleDetection struct {
	Column     int        `json:"column"`
	Header     string     `json:"header"`
	Normalized string     `json:"normalized"`
	Role       Role       `json:"role"`
	Confidence Confidence `json:"confidence"`
	Pattern    string     `json:"pattern,omitempty"`
	Reason     string     `json:"reason"`
}

// SheetSchemaAnalysis aggregates the role detections for one sheet.
type SheetSchemaAnalysis struct {
	SheetName   string                `json:"sheetName"`
	HeaderRow   int                   `json:"headerRow"`
	Detections  []ColumnRoleDetection `json:"detections"`
	RoleColumns map[Role][]int        `json:"roleColumns"`
	KnownCount  int                   `json:"knownCount"`
	Unknown     int                   `json:"unknownCount"`
	Coverage    float64               `json:"coverage"`
}

// Columns returns the column indices detected for a role.
func (a *SheetSchemaAnalysis) Columns(role Role) []int {
	return a.RoleColumns[role]
}

// FirstColumn returns the first column for a role, -1 when absent.
func (a *SheetSchemaAnalysis) FirstColumn(role Role) int {
	cols := a.RoleColumns[role]
	if len(cols) == 0 {
		return -1
	}
	return cols[0]
}

// Category is one semantic sheet type.
type Category string

const (
	CategorySimulationStatus Category = "SIMULATION_STATUS"
	CategoryAssembliesList   Category = "ASSEMBLIES_LIST"
	CategoryRobotSpecs       Category = "ROBOT_SPECS"
	CategoryGunList          Category = "GUN_LIST"
	CategoryUnknown          Category = "UNKNOWN"
)

// CategoryMatch is the winning sheet for one category.
type CategoryMatch struct {
	Category        Category `json:"category"`
	SheetName       string   `json:"sheetName"`
	HeaderRow       int      `json:"headerRow"`
	MatchedKeywords []string `json:"matchedKeywords"`
	StrongMatches   int      `json:"strongMatches"`
	NameScore       float64  `json:"nameScore"`
	Score           float64  `json:"score"`
	DataRows        int      `json:"dataRows"`
}

// WorkbookClassification is the classifier's result for one workbook.
type WorkbookClassification struct {
	ByCategory map[Category]*CategoryMatch `json:"byCategory"`
	Best       *CategoryMatch              `json:"best,omitempty"`
}

// InterpretedRow is one data row mapped to role values plus a short
// display summary used in audit logs and the review queue.
type InterpretedRow struct {
	SheetName string          `json:"sheetName"`
	RowIndex  int             `json:"rowIndex"`
	Values    map[Role]string `json:"values"`
	Summary   string          `json:"summary"`
}

// Value returns the formatted value for a role, empty when absent.
func (r *InterpretedRow) Value(role Role) string {
	return r.Values[role]
}
