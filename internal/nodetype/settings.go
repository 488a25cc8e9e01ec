package nodetype

// Target selects the generated source dialect.
type Target string

const (
	JavaScript     Target = "javascript"
	AssemblyScript Target = "assemblyscript"
)

// Settings are the immutable compile settings.
type Settings struct {
	Target Target        `yaml:"target" json:"target"`
	Audio  AudioSettings `yaml:"audio" json:"audio"`
	IO     IOSettings    `yaml:"io" json:"io"`
	// Arrays are named arrays registered when the program initializes.
	Arrays map[string][]float64 `yaml:"arrays" json:"-"`
	// CustomMetadata is passed through to the program metadata untouched.
	CustomMetadata map[string]interface{} `yaml:"customMetadata" json:"customMetadata,omitempty"`
	Debug          bool                   `yaml:"debug" json:"-"`
}

// AudioSettings describe the engine's audio format.
type AudioSettings struct {
	BitDepth     int          `yaml:"bitDepth" json:"bitDepth"`
	ChannelCount ChannelCount `yaml:"channelCount" json:"channelCount"`
}

// ChannelCount holds input and output channel counts.
type ChannelCount struct {
	In  int `yaml:"in" json:"in"`
	Out int `yaml:"out" json:"out"`
}

// IOSettings lists the ports exposed to the host, keyed by node id.
type IOSettings struct {
	MessageReceivers map[string][]string `yaml:"messageReceivers" json:"messageReceivers,omitempty"`
	MessageSenders   map[string][]string `yaml:"messageSenders" json:"messageSenders,omitempty"`
}

// DefaultSettings returns JavaScript, 64-bit, stereo out.
func DefaultSettings() Settings {
	return Settings{
		Target: JavaScript,
		Audio: AudioSettings{
			BitDepth:     64,
			ChannelCount: ChannelCount{In: 2, Out: 2},
		},
	}
}

// FloatArrayType returns the typed array name matching the bit depth.
func (s Settings) FloatArrayType() string {
	if s.Audio.BitDepth == 32 {
		return "Float32Array"
	}
	return "Float64Array"
}
