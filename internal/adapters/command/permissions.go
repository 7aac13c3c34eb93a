package command

import "github.com/okian/ranks/internal/domain/ranks"

// Permission names.
const (
	PermRank      = "rank_system.command.rank"
	PermRecompute = "rank_system.command.recompute"
	PermReset     = "rank_system.command.reset"
)

// Permissions answers whether a sender holds a permission.
type Permissions interface {
	Has(senderID, permission string) bool
}

// StaticPermissions grants the rank command to everybody and the
// administrative commands to a fixed set of operators.
type StaticPermissions struct {
	operators map[string]struct{}
}

// NewStaticPermissions returns permissions for the given operator ids.
func NewStaticPermissions(operators []string) *StaticPermissions {
	p := &StaticPermissions{operators: make(map[string]struct{}, len(operators))}
	for _, id := range operators {
		if id = ranks.NormalizeID(id); id != "" {
			p.operators[id] = struct{}{}
		}
	}
	return p
}

// Has reports whether senderID holds permission.
func (p *StaticPermissions) Has(senderID, permission string) bool {
	switch permission {
	case PermRank:
		return true
	case PermRecompute, PermReset:
		_, ok := p.operators[ranks.NormalizeID(senderID)]
		return ok
	}
	return false
}
