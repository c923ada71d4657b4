package script

// Op names a script step.
type Op string

// Step operations.
const (
	OpCreate  Op = "create"
	OpChain   Op = "chain"
	OpAdopt   Op = "adopt"
	OpDisown  Op = "disown"
	OpDispose Op = "dispose"
	OpRemove  Op = "remove"
	OpVerify  Op = "verify"
)

// DefaultKind is the kind given to nodes created without one.
const DefaultKind = "symbol"

// Script is a named sequence of edit steps.
type Script struct {
	Name       string `yaml:"name"                 json:"name"`
	Assertions bool   `yaml:"assertions,omitempty" json:"assertions,omitempty"`
	Steps      []Step `yaml:"steps"                json:"steps"`
	// Expect is the rendering the forest must have once every step ran.
	Expect string `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Step is one edit. Which fields apply depends on Op: create and chain use
// Nodes (and Kind); adopt uses First, Last, Parent, Left and Right; disown
// uses First and Last; dispose, remove and verify use Node.
type Step struct {
	Op          Op       `yaml:"op"                     json:"op"`
	Nodes       []string `yaml:"nodes,omitempty"        json:"nodes,omitempty"`
	Kind        string   `yaml:"kind,omitempty"         json:"kind,omitempty"`
	First       string   `yaml:"first,omitempty"        json:"first,omitempty"`
	Last        string   `yaml:"last,omitempty"         json:"last,omitempty"`
	Parent      string   `yaml:"parent,omitempty"       json:"parent,omitempty"`
	Left        string   `yaml:"left,omitempty"         json:"left,omitempty"`
	Right       string   `yaml:"right,omitempty"        json:"right,omitempty"`
	Node        string   `yaml:"node,omitempty"         json:"node,omitempty"`
	ExpectError string   `yaml:"expect_error,omitempty" json:"expect_error,omitempty"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index int    `json:"index"`
	Op    Op     `json:"op"`
	Error string `json:"error,omitempty"`
	Class string `json:"class,omitempty"`
}

// NodeRecord describes a live node by name.
type NodeRecord struct {
	Name   string `json:"name"`
	ID     uint32 `json:"id"`
	Kind   string `json:"kind"`
	Parent string `json:"parent,omitempty"`
	Left   string `json:"left,omitempty"`
	Right  string `json:"right,omitempty"`
	First  string `json:"first,omitempty"`
	Last   string `json:"last,omitempty"`
}

// Result is what Run reports about a script.
type Result struct {
	Name      string       `json:"name"`
	Steps     []StepResult `json:"steps"`
	Rendering string       `json:"rendering"`
	Nodes     []NodeRecord `json:"nodes"`
	Diff      string       `json:"diff,omitempty"`
	Passed    bool         `json:"passed"`
}
