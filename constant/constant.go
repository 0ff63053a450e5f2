package constant

// VideoCounter is the name of the counter row tracking the number of stored videos.
const VideoCounter = "videos"

// DurationUnknown is stored when ffprobe cannot determine a duration.
const DurationUnknown = "unknown"

// StreamChunkSize is the read size for range streaming, 256 KiB.
const StreamChunkSize = 256 * 1024

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
