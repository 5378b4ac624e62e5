package loam

// MachineMetadata is the frontmatter (or JSON/YAML body) of a machine document.
// It uses "mapstructure" tags to match the keys users write.
type MachineMetadata struct {
	ID       string `json:"id" mapstructure:"id"`
	States   string `json:"states" mapstructure:"states"`
	Alphabet string `json:"alphabet" mapstructure:"alphabet"`
	Initial  string `json:"initial" mapstructure:"initial"`
	Accept   string `json:"accept" mapstructure:"accept"`
	Reject   string `json:"reject" mapstructure:"reject"`

	// Transitions may be listed here; Markdown documents usually keep them in the body instead,
	// one per line.
	Transitions []string `json:"transitions" mapstructure:"transitions"`

	// Input is a sample tape used when the caller provides none.
	Input string `json:"input,omitempty" mapstructure:"input"`

	// Title is a human label for listings.
	Title string `json:"title,omitempty" mapstructure:"title"`
}
