package handler

import (
	"time"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is read from old clients and ignored; the route decides.
	Role string `json:"role,omitempty"`
}

type signinReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendReq struct {
	Email string `json:"email"`
}

type updateRoleReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type signupResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

type signinResp struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type verifyResp struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// userResp is the public view of a user. Hashes and codes never leave the
// service.
type userResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Label     string    `json:"label"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		Label:     u.Role.Label(),
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}
