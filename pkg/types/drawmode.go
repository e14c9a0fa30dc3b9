package types

// DrawMode is the draw mode state served by the daemon.
type DrawMode struct {
	Mode  string   `json:"mode"`
	Modes []string `json:"modes"`
}
