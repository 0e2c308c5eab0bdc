package project

import "time"

// Project is the durable identity of one workspace directory
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
	DBPath    string    `json:"db_path"`
}
