package models

import "time"

// Result is the persisted record for one resolved candidate. The result file
// holds one Result per line, in completion order.
type Result struct {
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Code      int       `json:"code"`
	Message   string    `json:"message,omitempty"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}
