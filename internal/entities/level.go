package entities

import (
	"fmt"
	"strings"
)

// Level is a rung on the permission scale. Levels are totally ordered and
// "meets requirement" means actual >= required.
type Level int

const (
	LevelEveryone Level = iota
	LevelMember
	LevelSubmod
	LevelMod
	LevelOwner
	// LevelGuildOwner is only ever produced for the owner of the guild itself.
	// It sits above every role-derived level so that role mappings can never
	// grant it.
	LevelGuildOwner
	LevelBotOwner
)

var levelNames = map[Level]string{
	LevelEveryone:   "EVERYONE",
	LevelMember:     "MEMBER",
	LevelSubmod:     "SUBMOD",
	LevelMod:        "MOD",
	LevelOwner:      "OWNER",
	LevelGuildOwner: "GUILD_OWNER",
	LevelBotOwner:   "BOT_OWNER",
}

// String returns the canonical upper-case name of the level
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Valid reports whether l is one of the defined levels
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// Meets reports whether l satisfies the required level
func (l Level) Meets(required Level) bool {
	return l >= required
}

// Bindable reports whether l may be assigned to a role or a command.
// GUILD_OWNER and BOT_OWNER are identity-derived and cannot be granted
// through a role binding.
func (l Level) Bindable() bool {
	return l >= LevelEveryone && l <= LevelOwner
}

// ParseLevel parses a level name (case-insensitive)
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}
	return LevelEveryone, fmt.Errorf("unknown permission level: %q", s)
}

// MustParseLevel is like ParseLevel but panics on unknown names.
// It is intended for static command declarations.
func MustParseLevel(s string) Level {
	level, err := ParseLevel(s)
	if err != nil {
		panic(err)
	}
	return level
}
