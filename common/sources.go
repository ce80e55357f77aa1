package common

// SourceID identifies a data provider
type SourceID string

// Known data providers
const (
	SourceSLGA        SourceID = "SLGA"
	SourceSILO        SourceID = "SILO"
	SourceDEM         SourceID = "DEM"
	SourceLandscape   SourceID = "Landscape"
	SourceRadiometric SourceID = "Radiometric"
	SourceDEA         SourceID = "DEA"
	SourceRemoteImage SourceID = "RemoteImage"
)

// SourceOrder is the fixed execution order of the harvest run.
// Sources not present in the configuration are skipped.
var SourceOrder = []SourceID{
	SourceSLGA,
	SourceSILO,
	SourceDEM,
	SourceLandscape,
	SourceRadiometric,
	SourceDEA,
	SourceRemoteImage,
}

// KnownSource returns whether id names a supported provider
func KnownSource(id SourceID) bool {
	for _, s := range SourceOrder {
		if s == id {
			return true
		}
	}
	return false
}
