package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/clients/embedding"
)

// classify produces the Classification for the current request. Decision
// order, first match wins:
//
//	assistant auto-stay → first branch → uninitialized centroid →
//	stay on current → route to existing → branch.
func (e *Engine) classify(ctx context.Context, pc *pipelineContext) error {
	if pc.input.Role == RoleAssistant {
		pc.addReason("assistant_auto_stay")
		var target *uuid.UUID
		if pc.current != nil {
			target = uuidPtr(pc.current.ID)
		}
		pc.classification = &Classification{
			Action:         ActionStay,
			DriftAction:    DriftActionStay,
			TargetBranchID: target,
			Reason:         "assistant_auto_stay",
			Similarity:     1.0,
			Confidence:     1.0,
		}
		return nil
	}

	if len(pc.branches) == 0 {
		pc.addReason("first_branch")
		pc.classification = &Classification{
			Action:         ActionBranch,
			DriftAction:    DriftActionBranchNewCluster,
			NewBranchTopic: ExtractTopic(pc.input.Content),
			Reason:         "first_branch",
			Similarity:     0,
			Confidence:     1.0,
		}
		return nil
	}

	if len(pc.current.Centroid) == 0 {
		pc.addReason("branch_no_centroid")
		pc.classification = &Classification{
			Action:         ActionStay,
			DriftAction:    DriftActionStay,
			TargetBranchID: uuidPtr(pc.current.ID),
			Reason:         "branch_no_centroid",
			Similarity:     1.0,
			Confidence:     1.0,
		}
		return nil
	}

	sim, boosts := e.similarityToCurrent(ctx, pc)

	act := DriftActionFor(sim, pc.policy.StayThreshold, pc.policy.NewClusterThreshold)

	if act == DriftActionStay {
		pc.addReason("similar_to_current")
		reason := fmt.Sprintf("similar_to_current (sim %.3f > stay %.2f)", sim, pc.policy.StayThreshold)
		if len(boosts) > 0 {
			reason = fmt.Sprintf("similar_to_current (sim %.3f > stay %.2f, boosts: %s)",
				sim, pc.policy.StayThreshold, strings.Join(boosts, ","))
		}
		pc.classification = &Classification{
			Action:         ActionStay,
			DriftAction:    DriftActionStay,
			TargetBranchID: uuidPtr(pc.current.ID),
			Reason:         reason,
			Similarity:     sim,
			Confidence:     sim,
		}
		return nil
	}

	if cls := e.routeCandidate(pc); cls != nil {
		pc.classification = cls
		return nil
	}

	code := "branch_same_cluster"
	if act == DriftActionBranchNewCluster {
		code = "branch_new_cluster"
	}
	pc.addReason(code)
	pc.classification = &Classification{
		Action:         ActionBranch,
		DriftAction:    act,
		NewBranchTopic: ExtractTopic(pc.input.Content),
		Reason:         fmt.Sprintf("%s (sim %.3f)", code, sim),
		Similarity:     sim,
		Confidence:     1 - sim,
	}
	return nil
}

// similarityToCurrent asks the embedding service for a boosted drift
// analysis; a failure there degrades to the raw cosine with no boosts.
// A branch with no prior message gives the analysis nothing to compare
// against, so it is scored by raw cosine alone.
func (e *Engine) similarityToCurrent(ctx context.Context, pc *pipelineContext) (float64, []string) {
	if pc.lastMessageContent == "" {
		sim, err := Cosine(pc.embedding, pc.current.Centroid)
		if err != nil {
			sim = 0
		}
		return sim, nil
	}

	analysis, err := e.embed.AnalyzeDrift(ctx, embedding.DriftAnalysisRequest{
		Current:          pc.input.Content,
		Previous:         pc.lastMessageContent,
		CurrentEmbedding: pc.embedding,
		BranchCentroid:   pc.current.Centroid,
		Preprocess:       pc.policy.PreprocessEmbedding,
	})
	if err != nil {
		e.log.Warn("drift analysis unavailable, using raw cosine",
			"conversation_id", pc.input.ConversationID,
			"branch_id", pc.current.ID.String(),
			"error", err.Error(),
		)
		pc.addReason("drift_analysis_fallback")
		sim, cosErr := Cosine(pc.embedding, pc.current.Centroid)
		if cosErr != nil {
			sim = 0
		}
		return sim, nil
	}

	pc.analysis = analysis
	for _, b := range analysis.BoostsApplied {
		pc.addReason(b)
	}
	return analysis.BoostedSimilarity, analysis.BoostsApplied
}

type routeScore struct {
	branch *BranchState
	score  float64
}

// routeCandidate scores the message against every other branch's centroid
// and returns a ROUTE classification when the best score clears the route
// threshold. A detected topic-return signal multiplies candidate scores by
// the boost factor, clamped to 1.0.
func (e *Engine) routeCandidate(pc *pipelineContext) *Classification {
	topicReturn := pc.analysis != nil && pc.analysis.Analysis.HasTopicReturnSignal

	var scored []routeScore
	for i := range pc.branches {
		b := &pc.branches[i]
		if b.IsCurrent || len(b.Centroid) == 0 {
			continue
		}
		score, err := Cosine(pc.embedding, b.Centroid)
		if err != nil {
			continue
		}
		if topicReturn {
			score *= TopicReturnBoostFactor
			if score > 1.0 {
				score = 1.0
			}
		}
		scored = append(scored, routeScore{branch: b, score: score})
	}
	if len(scored) == 0 {
		return nil
	}

	// Input order is updatedAt desc / id asc, so a stable sort keeps the
	// tie-break rule intact.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	best := scored[0]
	if best.score <= pc.policy.RouteThreshold {
		return nil
	}

	pc.addReason("route_existing")
	suffix := ""
	if topicReturn {
		pc.addReason("topic_return_signal")
		suffix = ", topic_return_boost"
	}

	return &Classification{
		Action:         ActionRoute,
		DriftAction:    DriftActionFor(best.score, pc.policy.StayThreshold, pc.policy.NewClusterThreshold),
		TargetBranchID: uuidPtr(best.branch.ID),
		Reason: fmt.Sprintf("routing_to_existing %q (score %.3f > route %.2f%s)",
			best.branch.Summary, best.score, pc.policy.RouteThreshold, suffix),
		Similarity: best.score,
		Confidence: best.score,
	}
}
