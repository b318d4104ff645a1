// Package analysis runs the staged stock-analysis pipeline: four sequential
// stages, each a bounded conversation between a reasoning collaborator and a
// fixed set of data capabilities. The synthesis stage must terminate through
// the deterministic report formatter; its output is the run result verbatim.
package analysis

import "time"

// Stage names in execution order.
const (
	StageResearch    = "research"
	StageTechnical   = "technical"
	StageFundamental = "fundamental"
	StageSynthesis   = "synthesis"
)

// Directive actions.
const (
	ActionTool   = "tool"
	ActionFinish = "finish"
)

// Directive is the collaborator's structured reply for one iteration: either
// invoke a named capability or finish the stage with a text conclusion.
type Directive struct {
	Action string            `json:"action" description:"Either tool or finish"`
	Tool   string            `json:"tool,omitempty" description:"Capability name when action is tool"`
	Args   map[string]string `json:"args,omitempty" description:"Capability arguments"`
	Text   string            `json:"text,omitempty" description:"Stage conclusion when action is finish"`
}

// Step records one tool invocation inside a stage.
type Step struct {
	Tool   string
	Args   map[string]string
	Result string
}

// Exchange carries everything the collaborator sees for one iteration.
type Exchange struct {
	Stage        string
	Symbol       string
	Prompt       string
	Context      string
	Capabilities []string
	Transcript   []Step
}

// StageResult is the recorded outcome of one completed stage.
type StageResult struct {
	Stage      string
	Output     string
	Iterations int
}

// RunResult is the outcome of a full pipeline run. Report is exactly the
// output of the final report formatter.
type RunResult struct {
	Symbol      string
	Report      string
	Stages      []StageResult
	CompletedAt time.Time
}
