package model

// ImageArtifact is a single normalized image produced by either the
// camera or the upload path. Exactly one artifact exists per capture
// attempt; it is discarded when the session ends.
type ImageArtifact struct {
	Name        string
	ContentType string
	Data        []byte
}
