package access

import "context"

type Level string

const (
	LevelAdmin  Level = "admin"
	LevelMember Level = "member"
	LevelNone   Level = "none"
)

type Verdict struct {
	HasAccess bool
	Level     Level
}

func (v Verdict) IsAdmin() bool {
	return v.HasAccess && v.Level == LevelAdmin
}

type Profile struct {
	DisplayName string
	Handle      string
}

// Checker resolves scope membership and profile data from the identity provider.
type Checker interface {
	Verify(ctx context.Context, userID, scopeID string) (Verdict, error)
	Profile(ctx context.Context, userID string) (Profile, error)
}
