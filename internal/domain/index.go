package domain

// CreateResult reports the outcome of an idempotent index creation.
type CreateResult int

const (
	// IndexCreated means the index did not exist and was created with the mapping.
	IndexCreated CreateResult = iota
	// IndexExists means the index was already present; its mapping was left untouched.
	IndexExists
)

func (r CreateResult) String() string {
	if r == IndexExists {
		return "exists"
	}
	return "created"
}
