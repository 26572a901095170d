package scenario

// Case is one assertion: a tool call and the outcome it must produce.
type Case struct {
	Tool   string         `yaml:"tool"`
	Input  map[string]any `yaml:"input"`
	Expect string         `yaml:"expect"`
	// Reason, when set, must appear in the decision reason.
	Reason string `yaml:"reason,omitempty"`
}

// Scenario is a named collection of assertions.
type Scenario struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Tool     string `json:"tool"`
	Target   string `json:"target"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason"`
	// Problem explains a failure beyond an outcome mismatch.
	Problem string `json:"problem,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
