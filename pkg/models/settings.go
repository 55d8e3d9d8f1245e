package models

import "time"

// AdminInviteCodeKey is the settings document holding the admin invite code.
const AdminInviteCodeKey = "admin_invite_code"

type Setting struct {
	Id         string    `bson:"_id" json:"id"`
	Value      string    `bson:"value" json:"value"`
	ModifiedAt time.Time `bson:"modifiedAt" json:"modifiedAt"`
}

type InviteCodeRequest struct {
	Code string `form:"code" json:"code" validate:"required,max=128"`
}
