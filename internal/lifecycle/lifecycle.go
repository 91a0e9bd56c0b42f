// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle implements the post approval workflow as a decision
// table over (role, ownership, current status, action). Authorization is
// always evaluated before the state check, so a caller with the wrong role
// gets a Forbidden error even when the post is also in the wrong state.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"casepress/internal/apperr"
	"casepress/internal/models"
)

// Action is a workflow operation requested against a post.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionView    Action = "view"
)

// DefaultRejectionReason is stored when an admin rejects a post without
// giving a reason.
const DefaultRejectionReason = "No reason provided"

// rule describes who may perform an action and from which states.
type rule struct {
	adminOnly  bool                // admins only; authors get Forbidden
	ownerBound bool                // authors may act only on their own posts
	public     bool                // no authentication required
	from       []models.PostStatus // allowed source states; nil means any
	forbidden  string              // message for role/ownership violations
	conflict   string              // message for state violations
}

// rules is the transition table. The zero target state is intentional:
// the new status for each action is computed in Apply, where effects
// (publishedAt, rejectionReason) live alongside the status change.
var rules = map[Action]rule{
	ActionSubmit: {
		ownerBound: true,
		from:       []models.PostStatus{models.StatusDraft, models.StatusRejected},
		forbidden:  "You can only submit your own posts",
		conflict:   "Only draft or rejected posts can be submitted",
	},
	ActionApprove: {
		adminOnly: true,
		from:      []models.PostStatus{models.StatusPendingApproval},
		forbidden: "Admin access required",
		conflict:  "Only pending posts can be approved",
	},
	ActionReject: {
		adminOnly: true,
		from:      []models.PostStatus{models.StatusPendingApproval},
		forbidden: "Admin access required",
		conflict:  "Only pending posts can be rejected",
	},
	ActionEdit: {
		ownerBound: true,
		forbidden:  "You can only edit your own posts",
	},
	ActionDelete: {
		adminOnly: true,
		forbidden: "Admin access required",
	},
	ActionView: {
		public:   true,
		from:     []models.PostStatus{models.StatusApproved},
		conflict: "Can only track views for approved posts",
	},
}

// Authorize checks whether the caller may perform action on a post in the
// given state. The role/ownership check runs first; only when it passes is
// the state constraint evaluated.
func Authorize(role models.Role, isOwner bool, status models.PostStatus, action Action) error {
	r, ok := rules[action]
	if !ok {
		return apperr.Validation("unknown action")
	}

	if !r.public {
		switch role {
		case models.RoleAdmin:
			// Admins pass every role and ownership gate.
		case models.RoleAuthor:
			if r.adminOnly {
				return apperr.Forbidden(r.forbidden)
			}
			if r.ownerBound && !isOwner {
				return apperr.Forbidden(r.forbidden)
			}
			// Authors may never touch an approved post, even their own.
			if action == ActionEdit && status == models.StatusApproved {
				return apperr.Forbidden("Cannot edit approved posts")
			}
		default:
			return apperr.Forbidden("Authentication required")
		}
	}

	if r.from != nil {
		allowed := false
		for _, s := range r.from {
			if s == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperr.Conflict(r.conflict)
		}
	}

	return nil
}

// Apply performs a status-changing action (submit, approve, reject) on the
// post in place: it authorizes the caller, moves the status, and applies
// the documented side effects. The post is untouched when an error is
// returned.
//
// Side effects: approve sets PublishedAt on first approval; reject stores
// the reason (or DefaultRejectionReason); any transition out of rejected
// clears the previous reason. UpdatedAt is refreshed on success.
func Apply(p *models.Post, action Action, role models.Role, actorID uuid.UUID, reason string, now time.Time) error {
	isOwner := p.AuthorID == actorID

	if err := Authorize(role, isOwner, p.Status, action); err != nil {
		return err
	}

	wasRejected := p.Status == models.StatusRejected

	switch action {
	case ActionSubmit:
		p.Status = models.StatusPendingApproval
	case ActionApprove:
		p.Status = models.StatusApproved
		if p.PublishedAt == nil {
			t := now
			p.PublishedAt = &t
		}
	case ActionReject:
		p.Status = models.StatusRejected
		if reason == "" {
			reason = DefaultRejectionReason
		}
		p.RejectionReason = &reason
	default:
		return apperr.Validation("action does not change status")
	}

	// A post leaving the rejected state starts clean; the old reason no
	// longer describes it.
	if wasRejected && p.Status != models.StatusRejected {
		p.RejectionReason = nil
	}

	p.UpdatedAt = now
	return nil
}
