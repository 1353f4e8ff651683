package routing

import (
	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/clients/embedding"
)

// Input is a single routing request after HTTP decoding.
type Input struct {
	ConversationID  string
	Content         string
	Role            string
	CurrentBranchID *uuid.UUID
	ExtractFacts    bool
	Overrides       *ThresholdOverrides
}

// Classification is the classifier's verdict, consumed by the executor.
type Classification struct {
	Action         string
	DriftAction    string
	TargetBranchID *uuid.UUID
	NewBranchTopic string
	Reason         string
	Similarity     float64
	Confidence     float64
}

// Result is the wire-level outcome of one routed message.
type Result struct {
	Action           string         `json:"action"`
	DriftAction      string         `json:"driftAction"`
	BranchID         string         `json:"branchId"`
	MessageID        string         `json:"messageId"`
	PreviousBranchID *string        `json:"previousBranchId,omitempty"`
	IsNewBranch      bool           `json:"isNewBranch"`
	IsNewCluster     bool           `json:"isNewCluster"`
	Reason           string         `json:"reason"`
	ReasonCodes      []string       `json:"reasonCodes,omitempty"`
	BranchTopic      string         `json:"branchTopic,omitempty"`
	Confidence       float64        `json:"confidence"`
	Similarity       float64        `json:"similarity"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// pipelineContext threads one request through the stages. Each stage reads
// what earlier stages produced and fills in its own slot.
type pipelineContext struct {
	input  Input
	policy Policy

	reasonCodes []string

	branches           []BranchState
	current            *BranchState
	lastMessageContent string

	embedding []float32
	analysis  *embedding.DriftAnalysis

	classification *Classification
	result         *Result
}

func (pc *pipelineContext) addReason(code string) {
	for _, c := range pc.reasonCodes {
		if c == code {
			return
		}
	}
	pc.reasonCodes = append(pc.reasonCodes, code)
}
