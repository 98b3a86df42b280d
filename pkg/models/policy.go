package models

// PolicySection is one addressable unit of the organization's care policy
// text. Sections are loaded once at startup and are never mutated afterwards.
type PolicySection struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}
