package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/netgraph/backend/internal/config"
	"github.com/netgraph/backend/internal/domain"
	"github.com/netgraph/backend/pkg/graph"
)

var (
	ErrSearchParamRequired = errors.New("at least one search parameter (node_id or name) is required")
	ErrNodeNotFound        = errors.New("node not found")
	ErrNoPath              = errors.New("no path found")
	ErrEmptyQuery          = errors.New("query cannot be empty")
	ErrForbiddenQuery      = errors.New("query contains a forbidden operation, only read operations are allowed")
	ErrGraphUnavailable    = errors.New("graph database unavailable")
)

// GraphRunner is the slice of the graph client this usecase needs.
type GraphRunner interface {
	Run(ctx context.Context, query string, params map[string]any) ([]graph.Record, []string, error)
}

// GraphUsecase is thin routing into Neo4j: it shapes parameters into Cypher
// and query results into API models. All traversal logic lives in the
// database.
type GraphUsecase struct {
	client GraphRunner
	cfg    *config.APIConfig
	log    *zap.Logger
}

func NewGraphUsecase(client GraphRunner, cfg *config.APIConfig, log *zap.Logger) *GraphUsecase {
	return &GraphUsecase{client: client, cfg: cfg, log: log}
}

type SearchParams struct {
	NodeID *int64
	Name   string
	Label  *domain.NodeLabel
	Limit  int
	Offset int
}

func (g *GraphUsecase) SearchNodes(ctx context.Context, p SearchParams) (*domain.SearchResult, error) {
	if p.NodeID == nil && p.Name == "" {
		return nil, ErrSearchParamRequired
	}
	limit := g.clampLimit(p.Limit)

	match := "MATCH (n)"
	if p.Label != nil {
		// Label comes from the validated NodeLabel enum, safe to inline.
		match = fmt.Sprintf("MATCH (n:`%s`)", *p.Label)
	}

	var query string
	params := map[string]any{"limit": limit, "offset": p.Offset}
	if p.NodeID != nil {
		query = match + `
		WHERE n.node_id = $node_id
		RETURN n SKIP $offset LIMIT $limit`
		params["node_id"] = *p.NodeID
	} else {
		query = match + `
		WHERE n.name IS NOT NULL AND toLower(n.name) CONTAINS toLower($name)
		RETURN n SKIP $offset LIMIT $limit`
		params["name"] = p.Name
	}

	records, _, err := g.client.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	nodes := make([]domain.GraphNode, 0, len(records))
	for _, rec := range records {
		if n, ok := rec["n"].(graph.Node); ok {
			nodes = append(nodes, toGraphNode(n))
		}
	}
	return &domain.SearchResult{Nodes: nodes, Total: len(nodes)}, nil
}

// Neighbors returns the 1-hop subgraph around a node, optionally filtering
// neighbors by label. A node with no (matching) neighbors comes back alone.
func (g *GraphUsecase) Neighbors(ctx context.Context, nodeID int64, label *domain.NodeLabel, limit int) (*domain.Subgraph, error) {
	limit = g.clampLimit(limit)

	query := `
	MATCH (start {node_id: $node_id})-[r]-(neighbor)
	RETURN start, r, neighbor
	LIMIT $limit`
	if label != nil {
		query = fmt.Sprintf(`
	MATCH (start {node_id: $node_id})-[r]-(neighbor:`+"`%s`"+`)
	RETURN start, r, neighbor
	LIMIT $limit`, *label)
	}

	records, _, err := g.client.Run(ctx, query, map[string]any{"node_id": nodeID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	if len(records) == 0 {
		return g.lonelyNode(ctx, nodeID)
	}

	sub := newSubgraphBuilder()
	for _, rec := range records {
		if n, ok := rec["start"].(graph.Node); ok {
			sub.addNode(n)
		}
		if n, ok := rec["neighbor"].(graph.Node); ok {
			sub.addNode(n)
		}
		if r, ok := rec["r"].(graph.Relationship); ok {
			sub.addLink(r)
		}
	}
	return sub.build(), nil
}

// lonelyNode distinguishes "node has no neighbors" from "node does not
// exist" after an empty neighbor query.
func (g *GraphUsecase) lonelyNode(ctx context.Context, nodeID int64) (*domain.Subgraph, error) {
	records, _, err := g.client.Run(ctx,
		"MATCH (n {node_id: $node_id}) RETURN n LIMIT 1",
		map[string]any{"node_id": nodeID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}
	if len(records) == 0 {
		return nil, ErrNodeNotFound
	}
	n, ok := records[0]["n"].(graph.Node)
	if !ok {
		return nil, ErrNodeNotFound
	}
	return &domain.Subgraph{Nodes: []domain.GraphNode{toGraphNode(n)}, Links: []domain.GraphLink{}}, nil
}

func (g *GraphUsecase) ShortestPath(ctx context.Context, startID, endID int64, maxHops int) (*domain.Subgraph, error) {
	if maxHops < 1 {
		maxHops = 1
	}
	if maxHops > 10 {
		maxHops = 10
	}

	// Variable-length bounds cannot be parameterized in Cypher.
	query := fmt.Sprintf(`
	MATCH path = shortestPath(
		(start {node_id: $start_node_id})-[*1..%d]-(end {node_id: $end_node_id})
	)
	RETURN path`, maxHops)

	records, _, err := g.client.Run(ctx, query, map[string]any{
		"start_node_id": startID,
		"end_node_id":   endID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	sub := newSubgraphBuilder()
	for _, rec := range records {
		path, ok := rec["path"].(graph.Path)
		if !ok {
			continue
		}
		for _, n := range path.Nodes {
			sub.addNode(n)
		}
		for _, r := range path.Relationships {
			sub.addLink(r)
		}
	}

	result := sub.build()
	if len(result.Nodes) == 0 {
		return nil, ErrNoPath
	}
	return result, nil
}

// readQueryPrefixes are the only clause starters accepted by RunCypher.
var readQueryPrefixes = []string{"MATCH", "OPTIONAL MATCH", "WITH", "UNWIND", "CALL", "RETURN"}

// forbiddenQueryWords reject write and schema operations wherever they appear
// as standalone words.
var forbiddenQueryWords = map[string]bool{
	"DELETE": true, "DETACH": true, "DROP": true,
	"CREATE": true, "MERGE": true, "SET": true, "REMOVE": true,
}

// RunCypher executes an arbitrary read-only Cypher query and returns the raw
// records. Write operations are rejected before reaching the database.
func (g *GraphUsecase) RunCypher(ctx context.Context, query string, params map[string]any) (*domain.CypherResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	upper := strings.ToUpper(query)
	allowed := false
	for _, prefix := range readQueryPrefixes {
		if strings.HasPrefix(upper, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrForbiddenQuery
	}
	for _, word := range strings.Fields(upper) {
		if forbiddenQueryWords[strings.Trim(word, "();,")] {
			return nil, ErrForbiddenQuery
		}
	}

	if params == nil {
		params = map[string]any{}
	}
	records, keys, err := g.client.Run(ctx, query, params)
	if err != nil {
		g.log.Error("cypher query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	results := make([]map[string]any, len(records))
	for i, rec := range records {
		results[i] = map[string]any(rec)
	}
	if keys == nil {
		keys = []string{}
	}
	return &domain.CypherResult{Results: results, Count: len(results), Keys: keys}, nil
}

func (g *GraphUsecase) Schema(ctx context.Context) (*domain.GraphSchema, error) {
	labels, err := g.stringColumn(ctx, "CALL db.labels()", "label")
	if err != nil {
		return nil, err
	}
	relTypes, err := g.stringColumn(ctx, "CALL db.relationshipTypes()", "relationshipType")
	if err != nil {
		return nil, err
	}
	propKeys, err := g.stringColumn(ctx, "CALL db.propertyKeys()", "propertyKey")
	if err != nil {
		return nil, err
	}
	return &domain.GraphSchema{
		NodeLabels:        labels,
		RelationshipTypes: relTypes,
		PropertyKeys:      propKeys,
	}, nil
}

func (g *GraphUsecase) Stats(ctx context.Context) (*domain.GraphStats, error) {
	query := `
	MATCH (n)
	WITH count(n) AS nodeCount
	MATCH ()-[r]->()
	RETURN nodeCount, count(r) AS relationshipCount`

	records, _, err := g.client.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}

	stats := &domain.GraphStats{}
	if len(records) > 0 {
		if n, ok := records[0]["nodeCount"].(int64); ok {
			stats.NodeCount = n
		}
		if n, ok := records[0]["relationshipCount"].(int64); ok {
			stats.RelationshipCount = n
		}
	}
	return stats, nil
}

// RelationshipTypes returns the static relationship catalogue of the dataset.
func (g *GraphUsecase) RelationshipTypes() []domain.RelationshipTypeInfo {
	return []domain.RelationshipTypeInfo{
		{Value: "officer_of", Description: "Officer relationship"},
		{Value: "intermediary_of", Description: "Intermediary relationship"},
		{Value: "registered_address", Description: "Registered address relationship"},
		{Value: "same_name_as", Description: "Same name person"},
		{Value: "similar_company_as", Description: "Similar company"},
		{Value: "same_address_as", Description: "Same address"},
	}
}

func (g *GraphUsecase) stringColumn(ctx context.Context, query, key string) ([]string, error) {
	records, _, err := g.client.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
	}
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if s, ok := rec[key].(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (g *GraphUsecase) clampLimit(limit int) int {
	if limit <= 0 {
		return g.cfg.DefaultLimit
	}
	if limit > g.cfg.MaxLimit {
		return g.cfg.MaxLimit
	}
	return limit
}

func toGraphNode(n graph.Node) domain.GraphNode {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	var nodeID int64
	if raw, ok := props["node_id"].(int64); ok {
		nodeID = raw
		delete(props, "node_id")
	}
	return domain.GraphNode{
		ID:         n.ElementID,
		NodeID:     nodeID,
		Label:      n.Label(),
		Properties: props,
	}
}

func toGraphLink(r graph.Relationship) domain.GraphLink {
	return domain.GraphLink{
		ID:         r.ElementID,
		Source:     r.StartElementID,
		Target:     r.EndElementID,
		Type:       r.Type,
		Properties: r.Props,
	}
}

// subgraphBuilder deduplicates nodes and links by element id while keeping
// first-seen order.
type subgraphBuilder struct {
	nodeSeen map[string]bool
	linkSeen map[string]bool
	nodes    []domain.GraphNode
	links    []domain.GraphLink
}

func newSubgraphBuilder() *subgraphBuilder {
	return &subgraphBuilder{
		nodeSeen: map[string]bool{},
		linkSeen: map[string]bool{},
	}
}

func (b *subgraphBuilder) addNode(n graph.Node) {
	if b.nodeSeen[n.ElementID] {
		return
	}
	b.nodeSeen[n.ElementID] = true
	b.nodes = append(b.nodes, toGraphNode(n))
}

func (b *subgraphBuilder) addLink(r graph.Relationship) {
	if b.linkSeen[r.ElementID] {
		return
	}
	b.linkSeen[r.ElementID] = true
	b.links = append(b.links, toGraphLink(r))
}

func (b *subgraphBuilder) build() *domain.Subgraph {
	nodes := b.nodes
	if nodes == nil {
		nodes = []domain.GraphNode{}
	}
	links := b.links
	if links == nil {
		links = []domain.GraphLink{}
	}
	return &domain.Subgraph{Nodes: nodes, Links: links}
}
