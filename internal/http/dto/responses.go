package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type NameResponse struct {
	Name string `json:"name"`
}

type ValidateNameResponse struct {
	Name  string `json:"name"`
	Valid bool   `json:"valid"`
}

type VerdictResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

type DispatchStatusResponse struct {
	AttemptID string `json:"attempt_id"`
	TicketID  string `json:"ticket_id"`
	State     string `json:"state"` // pending / succeeded / failed
	Detail    string `json:"detail,omitempty"`
	Attempts  int    `json:"attempts"`
}
