package editors

// Editor describes one installable code editor the UI can hand a project
// off to. Command is a template whose {path} placeholder is replaced with
// the project location at launch time.
type Editor struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Command string `yaml:"command" json:"command"`
}
