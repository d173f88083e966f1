package models

// RecordStatus is the classifier's verdict for one production record.
type RecordStatus string

const (
	StatusPending      RecordStatus = "pending"
	StatusHistory      RecordStatus = "history"
	StatusSuppressed   RecordStatus = "suppressed"
	StatusUnclassified RecordStatus = "unclassified"
)

// ProductionRecord is one normalized row of the PRODUCTION sheet.
// Material quantities are metric tonnes. MarkerPlanned/MarkerProcessed
// carry the raw marker cell contents; only their presence matters.
type ProductionRecord struct {
	RowNumber       int     `json:"row_number" example:"7"`
	BilletID        string  `json:"billet_id" example:"BILLET-7"`
	Timestamp       string  `json:"timestamp" example:"07/05/2025"`
	HeatNumber      string  `json:"heat_number" example:"H-2041"`
	JobCard         string  `json:"job_card" example:"JC-014"`
	Drclo           float64 `json:"drclo" example:"4.2"`
	Pellet          float64 `json:"pellet" example:"1.5"`
	Lumps           float64 `json:"lumps" example:"0.8"`
	ScrapCommon     float64 `json:"scrap_common" example:"5"`
	ScrapGrade      float64 `json:"scrap_grade" example:"15"`
	PigIron         float64 `json:"pig_iron" example:"2.1"`
	SilicoMn        float64 `json:"silico_mn" example:"0.4"`
	FenoChrone      float64 `json:"feno_chrone" example:"0.2"`
	Aluminium       float64 `json:"aluminium" example:"0.05"`
	AnthraciteCoal  float64 `json:"anthracite_coal" example:"1.1"`
	MetCoke         float64 `json:"met_coke" example:"0.9"`
	ProductionMT    float64 `json:"production_mt" example:"80"`
	MarkerPlanned   string  `json:"marker_planned,omitempty"`
	MarkerProcessed string  `json:"marker_processed,omitempty"`

	// Lab result columns, populated only for history rows of the lab view.
	Carbon           string `json:"carbon,omitempty" example:"0.21"`
	Sulfur           string `json:"sulfur,omitempty" example:"0.04"`
	Magnesium        string `json:"magnesium,omitempty"`
	Phosphorus       string `json:"phosphorus,omitempty"`
	LabStatus        string `json:"lab_status,omitempty" example:"Pass"`
	NeedTestingAgain string `json:"need_testing_again,omitempty" example:"No"`
	LabRemarks       string `json:"lab_remarks,omitempty"`

	Status RecordStatus `json:"status" example:"pending"`
}

// ReceivingRecord is one row of the RECEIVING sheet. The free-text
// logistics fields are stored as authored.
type ReceivingRecord struct {
	Timestamp      string  `json:"timestamp" example:"07/05/2025"`
	HeatNumber     string  `json:"heat_number" example:"H-2041"`
	JobCard        string  `json:"job_card" example:"JC-014"`
	Time           string  `json:"time" example:"3:24 PM"`
	ReceivingQtyMT float64 `json:"receiving_qty_mt" example:"78.5"`
	Ledel          string  `json:"ledel"`
	CCMTotalPieces string  `json:"ccm_total_pieces"`
	BPMillTO       string  `json:"bp_mill_to"`
	BPCCMTO        string  `json:"bp_ccm_to"`
	MillTOPcs      string  `json:"mill_to_pcs"`
	Remark         string  `json:"remark"`
}

// LabTestRecord is one row of the LAB TESTING sheet. Percentages stay
// free text; the sheet does not enforce numeric typing on them.
type LabTestRecord struct {
	Timestamp        string `json:"timestamp" example:"07/05/2025"`
	HeatNumber       string `json:"heat_number" example:"H-2041"`
	JobCard          string `json:"job_card" example:"JC-014"`
	Carbon           string `json:"carbon" example:"0.21"`
	Sulfur           string `json:"sulfur" example:"0.04"`
	Magnesium        string `json:"magnesium"`
	Phosphorus       string `json:"phosphorus"`
	Status           string `json:"status" example:"Pass"`
	NeedTestingAgain string `json:"need_testing_again" example:"No"`
	Remarks          string `json:"remarks"`
}

// AggregateMetrics are derived fresh on every materialization; nothing
// here is persisted. Totals cover the whole extracted set, not just the
// pending/history partitions.
type AggregateMetrics struct {
	TotalProduction   float64 `json:"total_production" example:"1240.5"`
	TotalScrapGrade   float64 `json:"total_scrap_grade" example:"112.3"`
	TotalScrapCommon  float64 `json:"total_scrap_common" example:"48.7"`
	TotalScrap        float64 `json:"total_scrap" example:"161"`
	TotalReceiving    float64 `json:"total_receiving" example:"1198.2"`
	AverageProduction float64 `json:"average_production" example:"77.5"`
	ConversionRate    float64 `json:"conversion_rate" example:"88.5"`
	RecordCount       int     `json:"record_count" example:"16"`
	PendingProduction int     `json:"pending_production" example:"3"`
	PendingReceiving  int     `json:"pending_receiving" example:"2"`
	PendingLabTesting int     `json:"pending_lab_testing" example:"1"`
}

// DailyProduction is one point of the dashboard conversion series,
// grouped by production date.
type DailyProduction struct {
	Date           string  `json:"date" example:"07/05/2025"`
	Label          string  `json:"label" example:"07 May"`
	Production     float64 `json:"production" example:"80"`
	Scrap          float64 `json:"scrap" example:"20"`
	ConversionRate float64 `json:"conversion_rate" example:"80"`
}

// Error codes carried by ErrorEntry.
const (
	ErrMalformedRow      = "MalformedRow"
	ErrUnparseableScalar = "UnparseableScalar"
	ErrAmbiguousMatch    = "AmbiguousMatch"
	ErrInputNotTabular   = "InputNotTabular"
)

// ErrorEntry is a non-fatal data-quality diagnostic attached to a
// materialization result. The core never fails a call over one of
// these; callers decide what to surface.
type ErrorEntry struct {
	Code    string `json:"code" example:"UnparseableScalar"`
	Row     int    `json:"row,omitempty" example:"9"`
	Field   string `json:"field,omitempty" example:"production_mt"`
	Message string `json:"message"`
}

// MaterializedView is the full output of one materialization pass over
// the production table.
type MaterializedView struct {
	PendingRecords []ProductionRecord `json:"pending_records"`
	HistoryRecords []ProductionRecord `json:"history_records"`
	Metrics        AggregateMetrics   `json:"metrics"`
	Errors         []ErrorEntry       `json:"errors,omitempty"`
}
