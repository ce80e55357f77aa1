package common

// ArtifactKind discriminates the origin of an artifact set so that consumers
// (preview, point extraction) can dispatch without runtime type inspection.
type ArtifactKind string

const (
	KindRaster      ArtifactKind = "raster"
	KindRemoteImage ArtifactKind = "remote-image"
)

// Artifact describes one downloaded or derived output file
type Artifact struct {
	Path  string `json:"path"`
	Layer string `json:"layer"`
	// Aggregation applied by the provider before download, if any
	Aggregation string `json:"aggregation,omitempty"`
}

// ArtifactSet is the tagged result of one adapter invocation
type ArtifactSet struct {
	Kind      ArtifactKind `json:"kind"`
	Source    SourceID     `json:"source"`
	Artifacts []Artifact   `json:"artifacts"`
}
