package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/driftos/driftos-backend/internal/clients/llm"
	driftrepos "github.com/driftos/driftos-backend/internal/data/repos/drift"
	types "github.com/driftos/driftos-backend/internal/domain/drift"
	"github.com/driftos/driftos-backend/internal/pkg/dbctx"
	"github.com/driftos/driftos-backend/internal/platform/envutil"
	"github.com/driftos/driftos-backend/internal/platform/logger"
)

const (
	factJobTimeout     = 15 * time.Second
	factPromptMessages = 20
)

const factSystemPrompt = `You extract durable facts from a conversation excerpt.
Return JSON: {"facts":[{"key":"snake_case_identifier","value":"short statement","confidence":0.0-1.0}]}.
Only include facts stated or strongly implied by the excerpt. Prefer user-stated
preferences, constraints, entities, and decisions. At most 10 facts.`

type factJob struct {
	conversationID string
	branchID       uuid.UUID
}

// FactService drains a bounded queue of extraction jobs against branches the
// conversation just drifted away from. Jobs are best-effort: a full queue
// drops, and failures are logged, never surfaced to routing callers.
type FactService struct {
	log      *logger.Logger
	llm      llm.Client
	messages driftrepos.MessageRepo
	facts    driftrepos.FactRepo

	mu     sync.Mutex
	closed bool
	jobs   chan factJob
	g      *errgroup.Group
}

func NewFactService(
	log *logger.Logger,
	llmClient llm.Client,
	messages driftrepos.MessageRepo,
	facts driftrepos.FactRepo,
) *FactService {
	queueSize := envutil.Int("FACT_QUEUE_SIZE", 256)
	return &FactService{
		log:      log.With("service", "FactService"),
		llm:      llmClient,
		messages: messages,
		facts:    facts,
		jobs:     make(chan factJob, queueSize),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or the
// queue is closed via Close.
func (s *FactService) Start(ctx context.Context) {
	workers := envutil.Int("FACT_WORKERS", 2)
	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	s.g = g
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job, ok := <-s.jobs:
					if !ok {
						return nil
					}
					s.run(ctx, job)
				}
			}
		})
	}
}

// Enqueue never blocks the routing path; when the queue is full the job is
// dropped with a warning. After Close it is a no-op, so a routing request
// racing shutdown cannot send on a closed channel.
func (s *FactService) Enqueue(conversationID string, branchID uuid.UUID) {
	if s.llm == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.jobs <- factJob{conversationID: conversationID, branchID: branchID}:
	default:
		s.log.Warn("fact queue full, dropping job",
			"conversation_id", conversationID,
			"branch_id", branchID.String(),
		)
	}
}

func (s *FactService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	if s.g != nil {
		_ = s.g.Wait()
	}
}

func (s *FactService) run(ctx context.Context, job factJob) {
	ctx, cancel := context.WithTimeout(ctx, factJobTimeout)
	defer cancel()

	if err := s.extract(ctx, job); err != nil {
		s.log.Warn("fact extraction failed",
			"conversation_id", job.conversationID,
			"branch_id", job.branchID.String(),
			"error", err.Error(),
		)
	}
}

func (s *FactService) extract(ctx context.Context, job factJob) error {
	msgs, err := s.messages.ListRecent(dbctx.Context{Ctx: ctx}, job.branchID, factPromptMessages)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	var b strings.Builder
	sourceIDs := make([]uuid.UUID, 0, len(msgs))
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		sourceIDs = append(sourceIDs, m.ID)
	}

	out, err := s.llm.GenerateJSON(ctx, factSystemPrompt, b.String())
	if err != nil {
		return err
	}

	parsed := parseFacts(out)
	if len(parsed) == 0 {
		return nil
	}

	sourceJSON, err := json.Marshal(sourceIDs)
	if err != nil {
		return err
	}

	for _, f := range parsed {
		row := &types.Fact{
			BranchID:         job.branchID,
			Key:              f.key,
			Value:            f.value,
			Confidence:       f.confidence,
			SourceMessageIDs: sourceJSON,
		}
		if err := s.facts.Upsert(dbctx.Context{Ctx: ctx}, row); err != nil {
			return err
		}
	}

	s.log.Info("facts extracted",
		"branch_id", job.branchID.String(),
		"count", len(parsed),
	)
	return nil
}

type parsedFact struct {
	key        string
	value      string
	confidence float64
}

// parseFacts tolerates sloppy model output: non-list facts fields, missing
// confidence, and non-string values are skipped or defaulted.
func parseFacts(out map[string]any) []parsedFact {
	raw, ok := out["facts"].([]any)
	if !ok {
		return nil
	}
	var parsed []parsedFact
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["key"].(string)
		value, _ := m["value"].(string)
		key = normalizeFactKey(key)
		if key == "" || value == "" {
			continue
		}
		confidence := 0.5
		if c, ok := m["confidence"].(float64); ok && c >= 0 && c <= 1 {
			confidence = c
		}
		parsed = append(parsed, parsedFact{key: key, value: value, confidence: confidence})
		if len(parsed) == 10 {
			break
		}
	}
	return parsed
}

func normalizeFactKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.Join(strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '-' || r == '.'
	}), "_")
	return key
}
