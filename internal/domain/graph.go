package domain

// Graph vocabulary mirrored from the investigation dataset loaded into Neo4j.
// The gateway never interprets these beyond validating route parameters; all
// traversal work happens inside the database.

type NodeLabel string

const (
	LabelOfficer      NodeLabel = "officer"
	LabelEntity       NodeLabel = "entity"
	LabelIntermediary NodeLabel = "intermediary"
	LabelAddress      NodeLabel = "address"
)

func ParseNodeLabel(s string) (NodeLabel, bool) {
	switch NodeLabel(s) {
	case LabelOfficer, LabelEntity, LabelIntermediary, LabelAddress:
		return NodeLabel(s), true
	}
	return "", false
}

// GraphNode is the visualization-facing node shape.
type GraphNode struct {
	ID         string         `json:"id"`
	NodeID     int64          `json:"node_id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

// GraphLink is the visualization-facing edge shape.
type GraphLink struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

type Subgraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type SearchResult struct {
	Nodes []GraphNode `json:"nodes"`
	Total int         `json:"total"`
}

type CypherResult struct {
	Results []map[string]any `json:"results"`
	Count   int              `json:"count"`
	Keys    []string         `json:"keys"`
}

type GraphSchema struct {
	NodeLabels        []string `json:"node_labels"`
	RelationshipTypes []string `json:"relationship_types"`
	PropertyKeys      []string `json:"property_keys"`
}

type GraphStats struct {
	NodeCount         int64 `json:"node_count"`
	RelationshipCount int64 `json:"relationship_count"`
}

type RelationshipTypeInfo struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}
