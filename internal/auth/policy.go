package auth

import (
	"fmt"
	"strings"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// OverwritePolicy decides what an OAuth login does to an existing role.
type OverwritePolicy string

const (
	// OverwriteWhenHintPresent lets a hint replace the stored role and keeps
	// it when no hint arrives.
	OverwriteWhenHintPresent OverwritePolicy = "whenHintPresent"
	// OverwriteAlways recomputes the role from the hint on every login; no
	// hint means candidate.
	OverwriteAlways OverwritePolicy = "always"
)

func ParseOverwritePolicy(s string) (OverwritePolicy, error) {
	switch p := OverwritePolicy(strings.TrimSpace(s)); p {
	case OverwriteAlways, OverwriteWhenHintPresent:
		return p, nil
	case "":
		return OverwriteWhenHintPresent, nil
	default:
		return "", fmt.Errorf("unknown oauth role overwrite policy %q", s)
	}
}

// RoleHint is the role a user asked for when starting an OAuth login.
type RoleHint string

const (
	HintNone      RoleHint = ""
	HintCandidate RoleHint = "candidate"
	HintRecruiter RoleHint = "recruiter"
)

// ParseHint maps a raw hint. "recruiter" in any case is a recruiter hint,
// blank is no hint, anything else asks for a candidate account.
func ParseHint(s string) RoleHint {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return HintNone
	case strings.EqualFold(s, string(HintRecruiter)):
		return HintRecruiter
	default:
		return HintCandidate
	}
}

// Present reports whether a hint was supplied.
func (h RoleHint) Present() bool { return h != HintNone }

// Role is the role the hint requests. Only recruiter maps to a non-default
// role.
func (h RoleHint) Role() model.Role {
	if h == HintRecruiter {
		return model.RoleRecruiter
	}
	return model.RoleUser
}

// Signup paths.
const (
	SignupCandidate = "candidate"
	SignupRecruiter = "recruiter"
)

var signupRoles = map[string]model.Role{
	SignupCandidate: model.RoleUser,
	SignupRecruiter: model.RoleRecruiter,
}

// SignupRole returns the role fixed by a signup endpoint.
func SignupRole(path string) (model.Role, error) {
	r, ok := signupRoles[path]
	if !ok {
		return "", &ValidationError{Msg: fmt.Sprintf("unknown signup path %q", path)}
	}
	return r, nil
}

// ResolveOAuthRole decides the role after an OAuth login. existing is nil
// for a first login. changed is true when an existing role is replaced.
// Admin accounts keep their role.
func ResolveOAuthRole(existing *model.User, hint RoleHint, policy OverwritePolicy) (model.Role, bool) {
	if existing == nil {
		return hint.Role(), false
	}
	if existing.Role == model.RoleAdmin {
		return existing.Role, false
	}
	var next model.Role
	switch {
	case policy == OverwriteAlways:
		next = hint.Role()
	case hint.Present():
		next = hint.Role()
	default:
		next = existing.Role
	}
	return next, next != existing.Role
}

// OAuthLabel is the role label put on the OAuth success redirect. Only
// recruiters get their own label.
func OAuthLabel(r model.Role) string {
	if r == model.RoleRecruiter {
		return model.LabelRecruiter
	}
	return model.LabelCandidate
}
