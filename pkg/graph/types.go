package graph

// Record is one row of a query result, keyed by the RETURN aliases. Values
// are primitives, Node, Relationship, Path, or nested slices/maps thereof.
type Record map[string]any

// Node is a driver-independent graph node. Kind is always "node" so raw
// records marshal with an explicit type tag.
type Node struct {
	Kind      string         `json:"_type"`
	ElementID string         `json:"element_id"`
	Labels    []string       `json:"labels"`
	Props     map[string]any `json:"properties"`
}

// Label returns the primary label, or "Unknown" for an unlabeled node.
func (n Node) Label() string {
	if len(n.Labels) == 0 {
		return "Unknown"
	}
	return n.Labels[0]
}

type Relationship struct {
	Kind           string         `json:"_type"`
	ElementID      string         `json:"element_id"`
	Type           string         `json:"type"`
	StartElementID string         `json:"start_node_element_id"`
	EndElementID   string         `json:"end_node_element_id"`
	Props          map[string]any `json:"properties"`
}

type Path struct {
	Kind          string         `json:"_type"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}
