package domain

// Operator is an administrative user allowed to record manual overrides
// and push observation batches.
type Operator struct {
	Entity
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsRoot       bool   `json:"is_root"`
}
