package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/OFFIS-RIT/factgraph/internal/storage"
	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/graph"
	"github.com/OFFIS-RIT/factgraph/pkg/leaselock"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"
	"github.com/OFFIS-RIT/factgraph/pkg/store"
	"github.com/OFFIS-RIT/factgraph/pkg/summarize"

	"github.com/rabbitmq/amqp091-go"
)

// GraphJobMsg asks the worker to build and render the graph of one claim.
type GraphJobMsg struct {
	ClaimID   string `json:"claim_id"`
	Summarize bool   `json:"summarize"`
}

// GraphLockKey guards the shared graph store: every job resets it, so only
// one job may run at a time across all workers.
const GraphLockKey = "graph_store"

// GraphJobDeps bundles what a graph job needs. Summarizer, Objects and Lock
// are optional.
type GraphJobDeps struct {
	Store      store.ClaimStorage
	Graph      *graph.GraphClient
	Summarizer *summarize.Summarizer
	Objects    *storage.ObjectStore
	Lock       *leaselock.Client

	AssetPath  string
	CharCutoff int
	WorkerID   string
}

// GraphJobResult reports what a finished job produced.
type GraphJobResult struct {
	Folder  string
	Files   []string
	Objects []string
}

func ParseGraphJobMsg(body []byte) (GraphJobMsg, error) {
	var msg GraphJobMsg
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("failed to parse graph job: %w", err)
	}
	if msg.ClaimID == "" {
		return msg, errors.New("graph job without claim_id")
	}
	return msg, nil
}

// PublishGraphJob enqueues a graph job on the graph queue.
func PublishGraphJob(ch *amqp091.Channel, msg GraphJobMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, GraphQueue, data)
}

// ProcessGraphMessage runs a graph job read from the queue.
func ProcessGraphMessage(ctx context.Context, deps GraphJobDeps, body []byte) error {
	msg, err := ParseGraphJobMsg(body)
	if err != nil {
		return err
	}
	if deps.Lock == nil {
		_, err = RunGraphJob(ctx, deps, msg)
		return err
	}

	run := func(ctx context.Context) error {
		_, err := RunGraphJob(ctx, deps, msg)
		return err
	}
	opts := leaselock.Options{TTL: 2 * time.Minute, Owner: deps.WorkerID}

	err = deps.Lock.WithLease(ctx, GraphLockKey, opts, run)
	if !errors.Is(err, leaselock.ErrBusy) {
		return err
	}

	if h, held, herr := deps.Lock.Holder(ctx, GraphLockKey); herr == nil && held {
		logger.Info("[Queue][Graph] Graph store busy, waiting", "claim_id", msg.ClaimID, "holder", h.Owner, "expires_at", h.ExpiresAt)
	}
	opts.Wait = true
	opts.PollInterval = time.Second
	opts.PollJitter = 500 * time.Millisecond
	return deps.Lock.WithLease(ctx, GraphLockKey, opts, run)
}

// RunGraphJob loads the claim's sources into a fresh graph, renders every
// view into AssetPath/<claim_id> and uploads the folder when an object store
// is configured.
func RunGraphJob(ctx context.Context, deps GraphJobDeps, msg GraphJobMsg) (GraphJobResult, error) {
	var result GraphJobResult
	if deps.Store == nil || deps.Graph == nil {
		return result, errors.New("graph job dependencies missing")
	}

	start := time.Now()
	logger.Info("[Queue][Graph] Starting graph job", "claim_id", msg.ClaimID, "summarize", msg.Summarize)

	sources, err := deps.Store.GetSources(ctx, msg.ClaimID)
	if err != nil {
		return result, fmt.Errorf("failed to load sources: %w", err)
	}
	if len(sources) == 0 {
		logger.Warn("[Queue][Graph] Claim has no sources", "claim_id", msg.ClaimID)
	}

	if msg.Summarize && deps.Summarizer != nil && len(sources) > 0 {
		summarizeBodies(ctx, deps.Summarizer, sources, deps.CharCutoff)
	}

	if err := deps.Graph.Reset(ctx); err != nil {
		return result, fmt.Errorf("failed to reset graph: %w", err)
	}
	deps.Graph.Load(ctx, common.ArticlesFromSources(sources))

	result.Folder = filepath.Join(deps.AssetPath, msg.ClaimID)
	result.Files = deps.Graph.RenderAll(ctx, result.Folder)
	if len(result.Files) == 0 {
		return result, fmt.Errorf("no graph views rendered for claim %s", msg.ClaimID)
	}

	if deps.Objects != nil {
		keys, err := deps.Objects.UploadFolder(ctx, result.Folder, path.Join("graphs", msg.ClaimID))
		result.Objects = keys
		if err != nil {
			return result, err
		}
	}

	logger.Info(
		"[Queue][Graph] Graph job finished",
		"claim_id", msg.ClaimID,
		"views", len(result.Files),
		"uploaded", len(result.Objects),
		"duration", time.Since(start),
	)
	return result, nil
}

func summarizeBodies(ctx context.Context, s *summarize.Summarizer, sources []common.Source, charCutoff int) {
	bodies := make([]string, len(sources))
	for i, src := range sources {
		bodies[i] = src.Body
	}
	for i, summary := range s.SummarizeBatch(ctx, bodies, charCutoff) {
		if summary != nil {
			sources[i].Body = *summary
		}
	}
}
