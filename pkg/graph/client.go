// Package graph provides a thin client for the Neo4j investigation database.
// It wraps the official driver and converts driver-specific node, relationship
// and path values into JSON-ready shapes so the rest of the service never
// imports driver types.
package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string // e.g. "neo4j+s://xxx.databases.neo4j.io"
	Username string
	Password string
}

// Client communicates with a Neo4j database.
type Client struct {
	driver neo4j.DriverWithContext
}

// NewClient creates a new Neo4j client. The connection is lazy; call
// VerifyConnectivity to probe it.
func NewClient(cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, err
	}
	return &Client{driver: driver}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Run executes a Cypher query in a read session and returns all records plus
// the result keys.
func (c *Client) Run(ctx context.Context, query string, params map[string]any) ([]Record, []string, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, nil, err
	}

	var keys []string
	var records []Record
	for result.Next(ctx) {
		rec := result.Record()
		if keys == nil {
			keys = rec.Keys
		}
		converted := make(Record, len(rec.Keys))
		for i, key := range rec.Keys {
			converted[key] = convertValue(rec.Values[i])
		}
		records = append(records, converted)
	}
	if err := result.Err(); err != nil {
		return nil, nil, err
	}
	return records, keys, nil
}

func convertValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return convertNode(v)
	case dbtype.Relationship:
		return convertRelationship(v)
	case dbtype.Path:
		return convertPath(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = convertValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = convertValue(item)
		}
		return out
	default:
		return v
	}
}

func convertNode(n dbtype.Node) Node {
	return Node{
		Kind:      "node",
		ElementID: n.ElementId,
		Labels:    n.Labels,
		Props:     n.Props,
	}
}

func convertRelationship(r dbtype.Relationship) Relationship {
	return Relationship{
		Kind:           "relationship",
		ElementID:      r.ElementId,
		Type:           r.Type,
		StartElementID: r.StartElementId,
		EndElementID:   r.EndElementId,
		Props:          r.Props,
	}
}

func convertPath(p dbtype.Path) Path {
	nodes := make([]Node, len(p.Nodes))
	for i, n := range p.Nodes {
		nodes[i] = convertNode(n)
	}
	rels := make([]Relationship, len(p.Relationships))
	for i, r := range p.Relationships {
		rels[i] = convertRelationship(r)
	}
	return Path{Kind: "path", Nodes: nodes, Relationships: rels}
}
