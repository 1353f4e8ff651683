package routing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/driftos/driftos-backend/internal/platform/apierr"
)

// execute commits the classification in one transaction: resolve or create
// the target branch, append the message, and for STAY/ROUTE fold the
// embedding into the target centroid under a row lock. Fact extraction for
// the departing branch is handed off after commit and never awaited.
func (e *Engine) execute(ctx context.Context, pc *pipelineContext) error {
	cls := pc.classification
	if cls == nil {
		return apierr.Internal(fmt.Errorf("execute without classification"))
	}

	var previousID *uuid.UUID
	if pc.current != nil {
		previousID = uuidPtr(pc.current.ID)
	}

	var targetID, messageID uuid.UUID

	err := e.store.Commit(ctx, func(tx CommitStore) error {
		switch cls.Action {
		case ActionStay:
			if cls.TargetBranchID == nil {
				return apierr.Internal(fmt.Errorf("stay with no current branch"))
			}
			targetID = *cls.TargetBranchID

		case ActionRoute:
			if cls.TargetBranchID == nil {
				return apierr.Internal(fmt.Errorf("route with no target branch"))
			}
			targetID = *cls.TargetBranchID

		case ActionBranch:
			summary := cls.NewBranchTopic
			if summary == "" {
				summary = ExtractTopic(pc.input.Content)
			}
			driftType := DriftTypeFunctional
			if cls.DriftAction == DriftActionBranchNewCluster {
				driftType = DriftTypeSemantic
			}
			id, err := tx.CreateBranch(ctx, NewBranch{
				ConversationID: pc.input.ConversationID,
				ParentID:       previousID,
				Summary:        summary,
				Centroid:       pc.embedding,
				DriftType:      driftType,
			})
			if err != nil {
				return err
			}
			targetID = id

		default:
			return apierr.Internal(fmt.Errorf("unknown action %q", cls.Action))
		}

		mid, err := tx.InsertMessage(ctx, NewMessage{
			ConversationID: pc.input.ConversationID,
			BranchID:       targetID,
			Role:           pc.input.Role,
			Content:        pc.input.Content,
			Embedding:      pc.embedding,
		})
		if err != nil {
			return err
		}
		messageID = mid

		if cls.Action != ActionBranch {
			// Count and centroid write stay under the same row lock so the
			// running average matches the count the writer saw.
			old, err := tx.LockBranch(ctx, targetID)
			if err != nil {
				return err
			}
			count, err := tx.CountMessages(ctx, targetID)
			if err != nil {
				return err
			}
			updated := UpdateCentroid(old, pc.embedding, count, pc.input.Role)
			if err := tx.UpdateCentroid(ctx, targetID, updated); err != nil {
				return err
			}
		}

		return tx.TouchConversation(ctx, pc.input.ConversationID)
	})
	if err != nil {
		return err
	}

	if cls.Action != ActionStay && pc.input.ExtractFacts && e.facts != nil && previousID != nil {
		e.facts.Enqueue(pc.input.ConversationID, *previousID)
		pc.addReason("fact_extraction_queued")
	}

	pc.result = e.buildResult(pc, cls, targetID, messageID, previousID)
	return nil
}

func (e *Engine) buildResult(pc *pipelineContext, cls *Classification, targetID, messageID uuid.UUID, previousID *uuid.UUID) *Result {
	res := &Result{
		Action:       cls.Action,
		DriftAction:  cls.DriftAction,
		BranchID:     targetID.String(),
		MessageID:    messageID.String(),
		IsNewBranch:  cls.Action == ActionBranch,
		IsNewCluster: cls.DriftAction == DriftActionBranchNewCluster,
		Reason:       cls.Reason,
		ReasonCodes:  pc.reasonCodes,
		Confidence:   cls.Confidence,
		Similarity:   cls.Similarity,
	}

	if cls.Action == ActionBranch {
		res.BranchTopic = cls.NewBranchTopic
	} else if pc.current != nil && targetID == pc.current.ID {
		res.BranchTopic = pc.current.Summary
	} else {
		for i := range pc.branches {
			if pc.branches[i].ID == targetID {
				res.BranchTopic = pc.branches[i].Summary
				break
			}
		}
	}

	if cls.Action != ActionStay && previousID != nil {
		prev := previousID.String()
		res.PreviousBranchID = &prev
	}

	meta := map[string]any{
		"branchCount":         len(pc.branches),
		"stayThreshold":       pc.policy.StayThreshold,
		"newClusterThreshold": pc.policy.NewClusterThreshold,
		"routeThreshold":      pc.policy.RouteThreshold,
	}
	if pc.analysis != nil {
		meta["rawSimilarity"] = pc.analysis.RawSimilarity
		meta["boostMultiplier"] = pc.analysis.BoostMultiplier
		if len(pc.analysis.BoostsApplied) > 0 {
			meta["boostsApplied"] = pc.analysis.BoostsApplied
		}
	}
	res.Metadata = meta

	return res
}
