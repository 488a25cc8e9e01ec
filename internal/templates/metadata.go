package templates

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"pdc/internal/nodetype"
	"pdc/internal/precompile"
)

// LibVersion is the runtime library version recorded in program metadata.
const LibVersion = "0.1.0"

// Metadata describes a compiled program to its host.
type Metadata struct {
	LibVersion     string                 `json:"libVersion"`
	CustomMetadata map[string]interface{} `json:"customMetadata"`
	Settings       MetadataSettings       `json:"settings"`
	Compilation    MetadataCompilation    `json:"compilation"`
}

// MetadataSettings are the engine settings. SampleRate and BlockSize are
// zero until the program is initialized.
type MetadataSettings struct {
	Audio MetadataAudio       `json:"audio"`
	IO    nodetype.IOSettings `json:"io"`
}

// MetadataAudio extends the audio settings with runtime values.
type MetadataAudio struct {
	BitDepth     int                   `json:"bitDepth"`
	ChannelCount nodetype.ChannelCount `json:"channelCount"`
	SampleRate   float64               `json:"sampleRate"`
	BlockSize    int                   `json:"blockSize"`
}

// MetadataCompilation holds the names a host needs to reach into the
// program.
type MetadataCompilation struct {
	VariableNamesIndex VariableNamesIndex `json:"variableNamesIndex"`
}

// VariableNamesIndex is the part of the name index made of imported and
// exported names only.
type VariableNamesIndex struct {
	IO      IONames                      `json:"io"`
	Globals map[string]map[string]string `json:"globals"`
}

// IONames maps node id, then portlet id, to the host-facing function.
type IONames struct {
	MessageReceivers map[string]map[string]string `json:"messageReceivers"`
	MessageSenders   map[string]map[string]string `json:"messageSenders"`
}

// BuildMetadata gathers the metadata of p.
func BuildMetadata(p *precompile.Program) *Metadata {
	custom := p.Settings.CustomMetadata
	if custom == nil {
		custom = map[string]interface{}{}
	}
	md := &Metadata{
		LibVersion:     LibVersion,
		CustomMetadata: custom,
		Settings: MetadataSettings{
			Audio: MetadataAudio{
				BitDepth:     p.Settings.Audio.BitDepth,
				ChannelCount: p.Settings.Audio.ChannelCount,
			},
			IO: p.Settings.IO,
		},
		Compilation: MetadataCompilation{VariableNamesIndex: VariableNamesIndex{
			IO: IONames{
				MessageReceivers: ioNames(p.IO.MessageReceivers.Values()),
				MessageSenders:   ioNames(p.IO.MessageSenders.Values()),
			},
			Globals: map[string]map[string]string{},
		}},
	}
	globals := md.Compilation.VariableNamesIndex.Globals
	add := func(namespace, key, name string) {
		if globals[namespace] == nil {
			globals[namespace] = map[string]string{}
		}
		globals[namespace][key] = name
	}
	for _, imp := range p.Dependencies.Imports {
		add(imp.Namespace, imp.Key, imp.Func.Name)
	}
	for _, exp := range p.Dependencies.Exports {
		add(exp.Namespace, exp.Key, exp.Name)
	}
	return md
}

func ioNames(entries []*precompile.IOEntry) map[string]map[string]string {
	names := map[string]map[string]string{}
	for _, entry := range entries {
		if names[entry.NodeID] == nil {
			names[entry.NodeID] = map[string]string{}
		}
		names[entry.NodeID][entry.PortletID] = entry.FunctionName
	}
	return names
}

// JSON serializes the metadata. Map keys are sorted, so the output is
// deterministic.
func (md *Metadata) JSON() (string, error) {
	data, err := json.Marshal(md)
	if err != nil {
		return "", errors.Wrap(err, "metadata")
	}
	return string(data), nil
}

// EmbedJSON renders serialized JSON as a string literal of the generated
// program: backslashes first, then quotes.
func EmbedJSON(data string) string {
	escaped := strings.ReplaceAll(data, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return "'" + escaped + "'"
}
