package port

// AudioProber reports the duration of an audio file in seconds.
type AudioProber interface {
	Duration(path string) (float64, error)
}
