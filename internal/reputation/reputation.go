// Package reputation appends to the interaction log and applies the points
// each interaction is worth.
package reputation

import (
	"fmt"
	"sort"

	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
)

// Points awarded for one interaction.
type Points struct {
	Performer int
	Author    int
}

// For returns the points for an action on a target type.
func For(action models.InteractionAction, target models.TargetType) Points {
	switch action {
	case models.ActionUpvote:
		return Points{Performer: 2, Author: 10}
	case models.ActionDownvote:
		return Points{Performer: -1, Author: -2}
	case models.ActionPost:
		if target == models.TargetAnswer {
			return Points{Performer: 10}
		}
		return Points{Performer: 5}
	case models.ActionDelete:
		if target == models.TargetAnswer {
			return Points{Performer: -10}
		}
		return Points{Performer: -5}
	default:
		return Points{}
	}
}

func isVote(action models.InteractionAction) bool {
	return action == models.ActionUpvote || action == models.ActionDownvote
}

// Record appends in to the log and credits reputation within tx. authorID is
// the author of the target; pass 0 when the target has no other author.
//
// Vote points are credited once per (performer, action, target), so toggling a
// vote cannot farm reputation, and voting on one's own content earns nothing.
func Record(tx *store.Tx, in models.Interaction, authorID int) error {
	pts := For(in.Action, in.ActionType)

	if isVote(in.Action) {
		if in.UserID == authorID {
			pts = Points{}
		} else {
			seen, err := tx.CountInteractions(in.UserID, in.Action, in.ActionID, in.ActionType)
			if err != nil {
				return err
			}
			if seen > 0 {
				pts = Points{}
			}
		}
	}

	if err := tx.AppendInteraction(&in); err != nil {
		return err
	}

	credits := []credit{{userID: in.UserID, delta: pts.Performer}}
	if authorID != 0 && authorID != in.UserID {
		credits = append(credits, credit{userID: authorID, delta: pts.Author})
	}
	// users rows are locked in id order so crossed votes cannot deadlock.
	sort.Slice(credits, func(i, j int) bool { return credits[i].userID < credits[j].userID })

	for _, c := range credits {
		if err := tx.AddReputation(c.userID, c.delta); err != nil {
			return fmt.Errorf("credit user %d: %w", c.userID, err)
		}
	}
	return nil
}

type credit struct {
	userID int
	delta  int
}
