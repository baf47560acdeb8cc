package osmsplit

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"

	"streets/tags"
)

// jsonDoc is the on-disk shape cmd/streetgen reads: nodes/ways/relations
// already resolved into plain values, matching spec §6's input contract
// ("for each node: coordinate, tag map"). Parsing an actual .osm.pbf/.osm.xml
// file is explicitly out of scope (DESIGN.md); this is the boundary where
// an external collaborator hands off already-decoded OSM data.
type jsonDoc struct {
	Nodes []struct {
		ID   int64             `json:"id"`
		Lon  float64           `json:"lon"`
		Lat  float64           `json:"lat"`
		Tags map[string]string `json:"tags"`
	} `json:"nodes"`
	Ways []struct {
		ID    int64             `json:"id"`
		Nodes []int64           `json:"nodes"`
		Tags  map[string]string `json:"tags"`
	} `json:"ways"`
	Relations []struct {
		ID      int64  `json:"id"`
		Kind    string `json:"kind"` // "ban" or "mandatory"
		From    int64  `json:"from"`
		To      int64  `json:"to"`
		ViaNode int64  `json:"via_node,omitempty"`
		ViaWay  int64  `json:"via_way,omitempty"`
	} `json:"relations"`
	// BoundaryPolygon is an optional [[lon, lat], ...] ring; when omitted the
	// splitter falls back to the bounding box of every referenced node.
	BoundaryPolygon [][2]float64 `json:"boundary_polygon,omitempty"`
}

// DecodeJSON reads cmd/streetgen's plain-JSON OSM input format from r and
// builds an Input ready for Split.
func DecodeJSON(r io.Reader) (Input, error) {
	var doc jsonDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Input{}, fmt.Errorf("osmsplit: decode json input: %w", err)
	}

	in := Input{
		Nodes: make(map[osm.NodeID]RawNode, len(doc.Nodes)),
	}
	for _, n := range doc.Nodes {
		in.Nodes[osm.NodeID(n.ID)] = RawNode{
			ID:    osm.NodeID(n.ID),
			Point: orb.Point{n.Lon, n.Lat},
			Tags:  tags.FromMap(n.Tags),
		}
	}

	in.Ways = make([]RawWay, 0, len(doc.Ways))
	for _, w := range doc.Ways {
		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, id := range w.Nodes {
			nodeIDs[i] = osm.NodeID(id)
		}
		in.Ways = append(in.Ways, RawWay{
			ID:      osm.WayID(w.ID),
			NodeIDs: nodeIDs,
			Tags:    tags.FromMap(w.Tags),
		})
	}

	in.Restrictions = make([]RawRestriction, 0, len(doc.Relations))
	for _, rel := range doc.Relations {
		kind := RestrictionBan
		if rel.Kind == "mandatory" {
			kind = RestrictionMandatory
		}
		in.Restrictions = append(in.Restrictions, RawRestriction{
			ID:      osm.RelationID(rel.ID),
			Kind:    kind,
			From:    osm.WayID(rel.From),
			To:      osm.WayID(rel.To),
			ViaNode: osm.NodeID(rel.ViaNode),
			ViaWay:  osm.WayID(rel.ViaWay),
		})
	}

	if len(doc.BoundaryPolygon) > 0 {
		ring := make(orb.Ring, len(doc.BoundaryPolygon))
		for i, p := range doc.BoundaryPolygon {
			ring[i] = orb.Point{p[0], p[1]}
		}
		in.BoundaryPolygon = ring
	}

	return in, nil
}
