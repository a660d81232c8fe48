package monitor

import "time"

type Status struct {
	MongoDB   bool      `json:"mongodb"`
	Spool     bool      `json:"spool"`
	SpoolSize int       `json:"spool_size"`
	LastCheck time.Time `json:"last_check"`
}
