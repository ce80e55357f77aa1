package common

//go:generate enumer -json -text -type Status -trimprefix Status -transform lower

// Status of a manifest entry
type Status int

const (
	StatusDownloaded Status = iota
	StatusProcessed
	StatusFailed
)
