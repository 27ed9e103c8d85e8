package domain

// DefaultVectorSize is the embedding dimensionality used when an index is created without one.
const DefaultVectorSize = 1536

// DefaultIndexName is the physical name used for an empty logical index name.
const DefaultIndexName = "default"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model            string
	Dimensions       int
	QueryInstruction string
}

// DefaultVectorConfig returns the default configuration tuned for text-embedding-ada-002.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "text-embedding-ada-002",
		Dimensions: DefaultVectorSize,
	}
}
