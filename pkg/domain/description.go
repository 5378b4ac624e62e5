package domain

// Description is the raw textual form of a machine, field for field as a user enters it.
// States and Alphabet are comma-separated; Transitions holds one
// "state,symbol,newState,newSymbol,direction" line per entry.
type Description struct {
	States      string   `json:"states" yaml:"states" mapstructure:"states"`
	Alphabet    string   `json:"alphabet" yaml:"alphabet" mapstructure:"alphabet"`
	Transitions []string `json:"transitions" yaml:"transitions" mapstructure:"transitions"`
	Initial     string   `json:"initial" yaml:"initial" mapstructure:"initial"`
	Accept      string   `json:"accept" yaml:"accept" mapstructure:"accept"`
	Reject      string   `json:"reject" yaml:"reject" mapstructure:"reject"`
}

// Source is a description whose lists are already split.
// It is what programmatic builders produce.
type Source struct {
	States      []string
	Alphabet    []string
	Transitions [][]string
	Initial     string
	Accept      string
	Reject      string
}
