package model

import "time"

type Candidate struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ResumeText string    `json:"resume_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
