// Package votes reconciles an actor's vote on a question or answer with the
// target's cached upvote and downvote counters.
package votes

import (
	"fmt"

	"github.com/emilythestrangee/devflow/backend/internal/apperr"
	"github.com/emilythestrangee/devflow/backend/internal/models"
	"github.com/emilythestrangee/devflow/backend/internal/store"
)

// State is an actor's vote on one target.
type State int

const (
	None State = iota
	Upvoted
	Downvoted
)

func (s State) String() string {
	switch s {
	case Upvoted:
		return "upvoted"
	case Downvoted:
		return "downvoted"
	default:
		return "none"
	}
}

// Delta is the change to apply to a target's counters.
type Delta struct {
	Upvotes   int
	Downvotes int
}

// StateOf maps a stored vote type to its state.
func StateOf(voteType models.VoteType) State {
	switch voteType {
	case models.VoteUp:
		return Upvoted
	case models.VoteDown:
		return Downvoted
	default:
		return None
	}
}

// Transition returns the state reached when requested is applied in current,
// and the counter change it implies. Requesting the current vote again
// toggles it off.
func Transition(current State, requested models.VoteType) (State, Delta) {
	want := StateOf(requested)
	switch {
	case want == None:
		return current, Delta{}
	case current == want:
		return None, counterDelta(want, -1)
	case current == None:
		return want, counterDelta(want, 1)
	default:
		d := counterDelta(current, -1)
		n := counterDelta(want, 1)
		return want, Delta{Upvotes: d.Upvotes + n.Upvotes, Downvotes: d.Downvotes + n.Downvotes}
	}
}

func counterDelta(s State, n int) Delta {
	if s == Upvoted {
		return Delta{Upvotes: n}
	}
	return Delta{Downvotes: n}
}

// Result reports the actor's vote after Apply.
type Result struct {
	Upvoted   bool `json:"upvoted"`
	Downvoted bool `json:"downvoted"`
}

func resultOf(s State) Result {
	return Result{Upvoted: s == Upvoted, Downvoted: s == Downvoted}
}

// Request is one vote by an authenticated actor.
type Request struct {
	ActorID    int
	TargetID   int
	TargetType models.TargetType
	VoteType   models.VoteType
}

// Apply moves the actor's vote on the target through Transition inside tx.
// The vote row and both counters change in the same scope; a missing target
// aborts it.
func Apply(tx *store.Tx, req Request) (Result, State, error) {
	if req.ActorID == 0 {
		return Result{}, None, apperr.Unauthorized()
	}
	if StateOf(req.VoteType) == None {
		return Result{}, None, apperr.Validation(map[string][]string{
			"voteType": {"must be upvote or downvote"},
		})
	}

	existing, err := tx.FindVote(req.ActorID, req.TargetID, req.TargetType)
	if err != nil {
		return Result{}, None, err
	}

	current := None
	if existing != nil {
		current = StateOf(existing.VoteType)
	}
	next, delta := Transition(current, req.VoteType)

	switch {
	case existing == nil:
		err = tx.CreateVote(&models.Vote{
			AuthorID:   req.ActorID,
			ActionID:   req.TargetID,
			ActionType: req.TargetType,
			VoteType:   req.VoteType,
		})
	case next == None:
		err = tx.DeleteVote(existing.ID)
	default:
		err = tx.SetVoteType(existing.ID, req.VoteType)
	}
	if err != nil {
		return Result{}, None, err
	}

	if err := tx.AddTargetCounter(req.TargetType, req.TargetID, "upvotes", delta.Upvotes); err != nil {
		return Result{}, None, err
	}
	if err := tx.AddTargetCounter(req.TargetType, req.TargetID, "downvotes", delta.Downvotes); err != nil {
		return Result{}, None, err
	}

	return resultOf(next), next, nil
}

// ApplyOnce is Apply guarded by an idempotency key. The first request with a
// key applies the vote and stores its result; a replay returns the stored
// result untouched. A key reused for another actor or target is a conflict.
func ApplyOnce(tx *store.Tx, key string, req Request) (Result, bool, error) {
	inserted, err := tx.InsertReceipt(&models.VoteReceipt{
		IdempotencyKey: key,
		AuthorID:       req.ActorID,
		ActionID:       req.TargetID,
		ActionType:     req.TargetType,
		VoteType:       req.VoteType,
	})
	if err != nil {
		return Result{}, false, err
	}

	if !inserted {
		r, err := tx.Receipt(key)
		if err != nil {
			return Result{}, false, err
		}
		if r.AuthorID != req.ActorID || r.ActionID != req.TargetID ||
			r.ActionType != req.TargetType || r.VoteType != req.VoteType {
			return Result{}, false, apperr.Conflict("idempotency key already used for another vote")
		}
		return Result{Upvoted: r.Upvoted, Downvoted: r.Downvoted}, true, nil
	}

	res, _, err := Apply(tx, req)
	if err != nil {
		return Result{}, false, err
	}
	if err := tx.UpdateReceipt(key, res.Upvoted, res.Downvoted); err != nil {
		return Result{}, false, fmt.Errorf("record vote result: %w", err)
	}
	return res, false, nil
}
