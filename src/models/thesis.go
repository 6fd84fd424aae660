package models

// ThesisNote is the quant-mental investment thesis attached to a symbol:
// why the position is held, how convinced the owner is, and the condition
// that would trigger an exit.
type ThesisNote struct {
	Symbol     string `json:"symbol"`
	Thesis     string `json:"thesis"`
	Conviction string `json:"conviction"` // e.g. "High", "Medium", "Low"
	Timeframe  string `json:"timeframe"`  // e.g. "3-5 years"
	KillSwitch string `json:"kill_switch"`
	Comment    string `json:"comment,omitempty"`
}
