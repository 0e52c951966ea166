package graph

import (
	"errors"
)

// GraphClient loads articles into a GraphStore and renders the stored
// relations to images.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	store GraphStore

	width            int
	height           int
	layoutUpdates    int
	overlapThreshold float64
	overlapStep      float64
	maxSweeps        int
	labelWidth       int
}

// NewGraphClientParams configures a GraphClient. Zero values select the
// defaults: a 1200x900 canvas, 200 layout updates, overlap threshold and
// step of 0.1, at most 100 overlap sweeps and labels wrapped at 15
// characters.
type NewGraphClientParams struct {
	Store GraphStore

	Width            int
	Height           int
	LayoutUpdates    int
	OverlapThreshold float64
	OverlapStep      float64
	MaxOverlapSweeps int
	LabelWidth       int
}

// NewGraphClient creates a GraphClient.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		Store: memory.NewGraphMemoryStorage(),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	client.Load(ctx, articles)
//	client.RenderAll(ctx, "assets/claim-1")
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	if params.Store == nil {
		return nil, errors.New("graph store is nil")
	}

	g := &GraphClient{
		store:            params.Store,
		width:            params.Width,
		height:           params.Height,
		layoutUpdates:    params.LayoutUpdates,
		overlapThreshold: params.OverlapThreshold,
		overlapStep:      params.OverlapStep,
		maxSweeps:        params.MaxOverlapSweeps,
		labelWidth:       params.LabelWidth,
	}
	if g.width <= 0 {
		g.width = 1200
	}
	if g.height <= 0 {
		g.height = 900
	}
	if g.layoutUpdates <= 0 {
		g.layoutUpdates = 200
	}
	if g.overlapThreshold <= 0 {
		g.overlapThreshold = 0.1
	}
	if g.overlapStep <= 0 {
		g.overlapStep = 0.1
	}
	if g.maxSweeps <= 0 {
		g.maxSweeps = 100
	}
	if g.labelWidth <= 0 {
		g.labelWidth = 15
	}

	return g, nil
}

// Store returns the backing graph store.
func (g *GraphClient) Store() GraphStore {
	return g.store
}
