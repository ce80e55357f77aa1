package config

// RemoteImageConfig drives the satellite-catalog session: which collection to
// query, how scenes are reduced, and how the result is exported. The block
// mirrors the session phases.
type RemoteImageConfig struct {
	Collect    CollectConfig    `yaml:"collect"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Aggregate  *AggregateConfig `yaml:"aggregate"`
	Download   DownloadConfig   `yaml:"download"`
}

// CollectConfig selects the scenes of interest
type CollectConfig struct {
	// Collection is the catalog identifier, e.g. LANDSAT/LC09/C02/T1_L2
	Collection string `yaml:"collection"`
	// Coords is a point [lng, lat] or a bounding box [w, s, e, n]; empty
	// falls back to the run's resolved bounding box
	Coords []float64 `yaml:"coords"`
	// Buffer in metres around a point coordinate
	Buffer float64 `yaml:"buffer"`
	// Bound converts a buffered point to its rectangular bounds
	Bound bool `yaml:"bound"`
	// Date and EndDate override the run's date range when set
	Date    string `yaml:"date"`
	EndDate string `yaml:"end_date"`
}

// PreprocessConfig reduces the collection to a single image
type PreprocessConfig struct {
	MaskClouds *bool    `yaml:"mask_clouds"`
	Reduce     string   `yaml:"reduce"`
	Spectral   []string `yaml:"spectral"`
	Clip       *bool    `yaml:"clip"`
}

// CloudMasking defaults to on
func (p PreprocessConfig) CloudMasking() bool {
	return p.MaskClouds == nil || *p.MaskClouds
}

// Clipping defaults to on
func (p PreprocessConfig) Clipping() bool {
	return p.Clip == nil || *p.Clip
}

// AggregateConfig folds the collection into periodic composites. Optional.
type AggregateConfig struct {
	// Frequency is year, month or day
	Frequency string `yaml:"frequency"`
	ReduceBy  string `yaml:"reduce_by"`
}

// DownloadConfig exports the processed image
type DownloadConfig struct {
	Bands []string `yaml:"bands"`
	// Scale is the pixel size in metres; 0 defaults to 100
	Scale float64 `yaml:"scale"`
	// OutPath overrides the run's output directory when set
	OutPath string `yaml:"outpath"`
	// Format is the export format, e.g. png or tif
	Format string `yaml:"format"`
}
