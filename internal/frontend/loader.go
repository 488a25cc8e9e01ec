package frontend

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pdc/internal/diag"
	"pdc/internal/graph"
)

// LoadConfig tells the loader where the parsed patch lives. Format is
// "json" or "yaml"; when empty it is guessed from the file extension.
type LoadConfig struct {
	Path   string
	Format string
}

// Patch is a loaded graph and its named arrays side table.
type Patch struct {
	Graph  graph.Graph
	Arrays map[string][]float64
}

type patchFile struct {
	Nodes       []nodeFile           `json:"nodes" yaml:"nodes"`
	Connections []connectionFile     `json:"connections" yaml:"connections"`
	Arrays      map[string][]float64 `json:"arrays" yaml:"arrays"`
}

type nodeFile struct {
	ID                string                 `json:"id" yaml:"id"`
	Type              string                 `json:"type" yaml:"type"`
	Args              map[string]interface{} `json:"args" yaml:"args"`
	Inlets            []portletFile          `json:"inlets" yaml:"inlets"`
	Outlets           []portletFile          `json:"outlets" yaml:"outlets"`
	IsPushingMessages bool                   `json:"isPushingMessages" yaml:"isPushingMessages"`
	IsPullingSignal   bool                   `json:"isPullingSignal" yaml:"isPullingSignal"`
}

type portletFile struct {
	ID   string `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
}

type connectionFile struct {
	Source endpointFile `json:"source" yaml:"source"`
	Sink   endpointFile `json:"sink" yaml:"sink"`
}

type endpointFile struct {
	NodeID    string `json:"nodeId" yaml:"nodeId"`
	PortletID string `json:"portletId" yaml:"portletId"`
}

// Load reads and decodes a patch file. Structural problems (duplicate node
// ids, bad connections) are reported through reporter and fail the load.
func Load(cfg LoadConfig, reporter *diag.Reporter) (*Patch, error) {
	if cfg.Path == "" {
		return nil, errors.New("no patch file was provided")
	}
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "read patch")
	}
	format := cfg.Format
	if format == "" {
		format = formatOf(cfg.Path)
	}
	patch, err := Decode(data, format)
	if err != nil {
		reporter.Error(cfg.Path, err.Error())
		return nil, errors.Wrapf(err, "load %s", cfg.Path)
	}
	reporter.Debugf("loaded %d nodes from %s", len(patch.Graph), cfg.Path)
	return patch, nil
}

// Decode parses patch data in the given format.
func Decode(data []byte, format string) (*Patch, error) {
	var file patchFile
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrap(err, "decode yaml patch")
		}
	case "json", "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, errors.Wrap(err, "decode json patch")
		}
	default:
		return nil, errors.Errorf("unknown patch format %q", format)
	}

	nodes := make([]*graph.Node, 0, len(file.Nodes))
	for _, n := range file.Nodes {
		node := &graph.Node{
			ID:                n.ID,
			Type:              n.Type,
			Args:              normalizeArgs(n.Args),
			IsPushingMessages: n.IsPushingMessages,
			IsPullingSignal:   n.IsPullingSignal,
		}
		var err error
		if node.Inlets, err = portlets(n.Inlets); err != nil {
			return nil, errors.Wrapf(err, "inlets of node %q", n.ID)
		}
		if node.Outlets, err = portlets(n.Outlets); err != nil {
			return nil, errors.Wrapf(err, "outlets of node %q", n.ID)
		}
		nodes = append(nodes, node)
	}
	connections := make([]graph.Connection, 0, len(file.Connections))
	for _, c := range file.Connections {
		connections = append(connections, graph.Conn(c.Source.NodeID, c.Source.PortletID, c.Sink.NodeID, c.Sink.PortletID))
	}
	g, err := graph.Build(nodes, connections)
	if err != nil {
		return nil, err
	}
	return &Patch{Graph: g, Arrays: file.Arrays}, nil
}

func portlets(files []portletFile) ([]graph.Portlet, error) {
	result := make([]graph.Portlet, 0, len(files))
	for _, f := range files {
		t := graph.PortletType(f.Type)
		if t != graph.Signal && t != graph.Message {
			return nil, errors.Errorf("portlet %q has unknown type %q", f.ID, f.Type)
		}
		result = append(result, graph.Portlet{ID: f.ID, Type: t})
	}
	return result, nil
}

// normalizeArgs turns every number into a float64, whatever the decoder
// produced, so node types read arguments one way.
func normalizeArgs(args map[string]interface{}) map[string]interface{} {
	if args == nil {
		return nil
	}
	result := make(map[string]interface{}, len(args))
	for name, value := range args {
		result[name] = normalizeValue(value)
	}
	return result
}

func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return f
	case []interface{}:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = normalizeValue(item)
		}
		return list
	}
	return value
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}
