package models

import (
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// User is an operator account as read from the Login sheet. The sheet
// is the user table; nothing about the account lives in Postgres except
// sessions and activity history.
type User struct {
	Username   string      `json:"username" example:"ramesh"`
	Password   string      `json:"-"`
	Role       string      `json:"role" example:"supervisor"`
	Permission Permissions `json:"permissions"`
}

// Permissions gates page access by role. Derived, never stored.
type Permissions struct {
	Dashboard  bool `json:"dashboard" example:"true"`
	Production bool `json:"production" example:"true"`
	Receiving  bool `json:"receiving" example:"true"`
	LabTesting bool `json:"lab_testing" example:"false"`
	Export     bool `json:"export" example:"false"`
}

// PermissionsForRole derives the page permission set from the role
// column of the Login sheet. Unknown roles get viewer access.
func PermissionsForRole(role string) Permissions {
	role = strings.ToLower(strings.TrimSpace(role))
	elevated := role == "admin" || role == "supervisor"
	return Permissions{
		Dashboard:  true,
		Production: role != "viewer" && role != "",
		Receiving:  role != "viewer" && role != "",
		LabTesting: elevated,
		Export:     elevated,
	}
}

// Session mirrors the session table. Users come from the sheet, so the
// key is the username rather than a numeric user id.
type Session struct {
	Username              string    `json:"username"`
	SessionID             string    `json:"session_id"`
	HostName              string    `json:"host_name"`
	IPAddress             string    `json:"ip_address"`
	Timestamp             time.Time `json:"timestp"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"ramesh"`
	Password string `json:"password" binding:"required" example:"secret"`
	IP       string `json:"ip" example:"10.0.4.17"`
}

type LoginResponse struct {
	Message      string `json:"message" example:"Login successful"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	User         User   `json:"user"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"Invalid credentials"`
}

// ProductionSubmission is the operator form for a new production row.
// Quantities arrive as strings because the sheet stores them as
// authored; parsing to numbers happens only on read.
type ProductionSubmission struct {
	HeatNumber     string `json:"heat_number" binding:"required"`
	Drclo          string `json:"drclo" binding:"required"`
	Pellet         string `json:"pellet" binding:"required"`
	Lumps          string `json:"lumps" binding:"required"`
	ScrapCommon    string `json:"scrap_common" binding:"required"`
	ScrapGrade     string `json:"scrap_grade" binding:"required"`
	PigIron        string `json:"pig_iron" binding:"required"`
	SilicoMn       string `json:"silico_mn" binding:"required"`
	FenoChrone     string `json:"feno_chrone" binding:"required"`
	Aluminium      string `json:"aluminium" binding:"required"`
	AnthraciteCoal string `json:"anthracite_coal" binding:"required"`
	MetCoke        string `json:"met_coke" binding:"required"`
	ProductionMT   string `json:"production_mt" binding:"required"`
}

// ReceivingSubmission processes one pending production row into the
// RECEIVING sheet. RowNumber is the absolute production sheet row whose
// processed marker gets stamped afterwards.
type ReceivingSubmission struct {
	RowNumber      int    `json:"row_number" binding:"required"`
	HeatNumber     string `json:"heat_number" binding:"required"`
	JobCard        string `json:"job_card"`
	Time           string `json:"time"`
	ReceivingQtyMT string `json:"receiving_qty_mt"`
	Ledel          string `json:"ledel"`
	CCMTotalPieces string `json:"ccm_total_pieces" binding:"required"`
	BPMillTO       string `json:"bp_mill_to" binding:"required"`
	BPCCMTO        string `json:"bp_ccm_to" binding:"required"`
	MillTOPcs      string `json:"mill_to_pcs" binding:"required"`
	Remark         string `json:"remark"`
}

// LabTestSubmission records a lab result for one pending heat.
type LabTestSubmission struct {
	RowNumber        int    `json:"row_number" binding:"required"`
	HeatNumber       string `json:"heat_number" binding:"required"`
	JobCard          string `json:"job_card"`
	Carbon           string `json:"carbon" binding:"required"`
	Sulfur           string `json:"sulfur" binding:"required"`
	Magnesium        string `json:"magnesium" binding:"required"`
	Phosphorus       string `json:"phosphorus" binding:"required"`
	Status           string `json:"status" binding:"required"`             // Pass | Fail
	NeedTestingAgain string `json:"need_testing_again" binding:"required"` // Yes | No
	Remarks          string `json:"remarks"`
}
