package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Flags é o bitmask de capacidades de um usuário/bot (potências de 2 combinadas com OR).
type Flags uint64

const (
	FlagStaff Flags = 1 << iota
	FlagDeveloper
	FlagVerified
	FlagVerifiedBot
	FlagBot
	FlagSystem
	FlagFriendBan
	FlagGroupChatBan
	FlagGuildBan
	FlagSpammer
	FlagDisabled
	FlagDeleted
	FlagWaitingOnDisableDataUpdate
	FlagWaitingOnAccountDeletion
	FlagAccountDeleted
	FlagEmailVerified
)

var flagNames = map[string]Flags{
	"Staff":                      FlagStaff,
	"Developer":                  FlagDeveloper,
	"Verified":                   FlagVerified,
	"VerifiedBot":                FlagVerifiedBot,
	"Bot":                        FlagBot,
	"System":                     FlagSystem,
	"FriendBan":                  FlagFriendBan,
	"GroupChatBan":               FlagGroupChatBan,
	"GuildBan":                   FlagGuildBan,
	"Spammer":                    FlagSpammer,
	"Disabled":                   FlagDisabled,
	"Deleted":                    FlagDeleted,
	"WaitingOnDisableDataUpdate": FlagWaitingOnDisableDataUpdate,
	"WaitingOnAccountDeletion":   FlagWaitingOnAccountDeletion,
	"AccountDeleted":             FlagAccountDeleted,
	"EmailVerified":              FlagEmailVerified,
}

// Has informa se todos os bits de bit estão presentes em f.
// Um bit zero nunca é considerado presente.
func (f Flags) Has(bit Flags) bool {
	return bit != 0 && f&bit == bit
}

// HasAny informa se f tem pelo menos um bit de set.
func (f Flags) HasAny(set Flags) bool {
	return f&set != 0
}

// HasAll informa se f contém todos os bits de set (set vazio => true).
func (f Flags) HasAll(set Flags) bool {
	return f&set == set
}

func (f Flags) Union(other Flags) Flags { return f | other }

// Names devolve os nomes conhecidos presentes em f, ordenados.
func (f Flags) Names() []string {
	out := make([]string, 0, len(flagNames))
	for name, bit := range flagNames {
		if f.Has(bit) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// ParseFlags converte nomes ("FriendBan", "Staff") no bitmask correspondente.
// Nomes desconhecidos são erro: uma política com flag errada não pode virar "sem restrição".
func ParseFlags(names ...string) (Flags, error) {
	var out Flags
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		bit, ok := flagNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		out |= bit
	}
	return out, nil
}

// MustParseFlags é ParseFlags para tabelas de rotas declaradas no código.
func MustParseFlags(names ...string) Flags {
	f, err := ParseFlags(names...)
	if err != nil {
		panic(err)
	}
	return f
}
