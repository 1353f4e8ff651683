package routing

import (
	"time"

	"github.com/driftos/driftos-backend/internal/platform/envutil"
)

// Routing actions as exposed on the wire.
const (
	ActionStay   = "STAY"
	ActionRoute  = "ROUTE"
	ActionBranch = "BRANCH"
)

// Drift actions: how far the message moved from the branch centroid.
const (
	DriftActionStay              = "STAY"
	DriftActionBranchSameCluster = "BRANCH_SAME_CLUSTER"
	DriftActionBranchNewCluster  = "BRANCH_NEW_CLUSTER"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	DriftTypeSemantic   = "semantic"
	DriftTypeFunctional = "functional"
)

// Fixed coefficients. These are model-calibrated, not tuning knobs.
const (
	TopicReturnBoostFactor  = 2.5
	UserCentroidWeight      = 3.0
	AssistantCentroidWeight = 1.0
)

const (
	DefaultStayThreshold       = 0.47
	DefaultNewClusterThreshold = 0.20
	DefaultRouteThreshold      = 0.42
	DefaultMaxBranches         = 10
	DefaultPipelineTimeout     = 10 * time.Second
)

// Policy is the resolved per-request routing configuration: environment
// defaults overlaid with any per-request threshold overrides.
type Policy struct {
	StayThreshold       float64
	NewClusterThreshold float64
	RouteThreshold      float64
	MaxBranches         int
	PipelineTimeout     time.Duration
	PreprocessEmbedding bool
}

func DefaultPolicy() Policy {
	return Policy{
		StayThreshold:       DefaultStayThreshold,
		NewClusterThreshold: DefaultNewClusterThreshold,
		RouteThreshold:      DefaultRouteThreshold,
		MaxBranches:         DefaultMaxBranches,
		PipelineTimeout:     DefaultPipelineTimeout,
		PreprocessEmbedding: false,
	}
}

func PolicyFromEnv() Policy {
	return Policy{
		StayThreshold:       envutil.Float("DRIFT_STAY_THRESHOLD", DefaultStayThreshold),
		NewClusterThreshold: envutil.Float("DRIFT_NEW_CLUSTER_THRESHOLD", DefaultNewClusterThreshold),
		RouteThreshold:      envutil.Float("DRIFT_ROUTE_THRESHOLD", DefaultRouteThreshold),
		MaxBranches:         envutil.Int("DRIFT_MAX_BRANCHES", DefaultMaxBranches),
		PipelineTimeout:     envutil.DurationMs("DRIFT_PIPELINE_TIMEOUT_MS", 10_000),
		PreprocessEmbedding: envutil.Bool("DRIFT_PREPROCESS_EMBEDDING", false),
	}
}

// ThresholdOverrides are optional per-request threshold replacements.
type ThresholdOverrides struct {
	StayThreshold       *float64 `json:"stayThreshold,omitempty"`
	NewClusterThreshold *float64 `json:"newClusterThreshold,omitempty"`
	RouteThreshold      *float64 `json:"routeThreshold,omitempty"`
}

// WithOverrides returns a copy of p with any non-nil overrides applied.
func (p Policy) WithOverrides(o *ThresholdOverrides) Policy {
	if o == nil {
		return p
	}
	if o.StayThreshold != nil {
		p.StayThreshold = *o.StayThreshold
	}
	if o.NewClusterThreshold != nil {
		p.NewClusterThreshold = *o.NewClusterThreshold
	}
	if o.RouteThreshold != nil {
		p.RouteThreshold = *o.RouteThreshold
	}
	return p
}
