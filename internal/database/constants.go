package database

// FaceEmbeddingDim is the default dimension for face embeddings (512 for buffalo_l/ResNet100)
const FaceEmbeddingDim = 512

// HNSW index parameters for 512-dim face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100

	// HNSWSearchMultiplier is the factor to request more candidates from HNSW
	// so enough survive threshold filtering and per-photo deduplication.
	HNSWSearchMultiplier = 3

	// HNSWMinCandidates is the floor on candidates requested from the graph.
	HNSWMinCandidates = 100
)
