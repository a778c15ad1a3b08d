package proof

// TopologySpec is a declarative topology transition accepted by a producer,
// e.g. TopologySpec{Name: "ring", Params: map[string]any{"wrap": true}}.
type TopologySpec struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// ParseTopology interprets a topology descriptor. A string names a topology
// without parameters; an object needs a non-empty string "name" and may carry
// "params".
func ParseTopology(v any) (TopologySpec, bool) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return TopologySpec{}, false
		}
		return TopologySpec{Name: t}, true
	case map[string]any:
		name, ok := t["name"].(string)
		if !ok || name == "" {
			return TopologySpec{}, false
		}
		spec := TopologySpec{Name: name}
		if params, ok := t["params"].(map[string]any); ok {
			spec.Params = params
		}
		return spec, true
	}
	return TopologySpec{}, false
}
