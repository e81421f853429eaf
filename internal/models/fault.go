package models

const (
	FaultStatusSuccess  = "success"
	FaultStatusNotFound = "not_found"
)

// FaultCandidate is an error coil driven by an OUT instruction.
type FaultCandidate struct {
	Device         string   `json:"device"`
	Comment        string   `json:"comment"`
	Instruction    string   `json:"instruction"`
	Line           string   `json:"line"`
	Program        string   `json:"program"`
	LineNumber     int      `json:"lineNumber"`
	RelatedDevices []string `json:"relatedDevices"`
}

// FaultTraceReport is the JSON report of a fault-coil trace.
type FaultTraceReport struct {
	Status     string           `json:"status"`
	Candidates []FaultCandidate `json:"candidates,omitempty"`
	Message    string           `json:"message,omitempty"`
}
