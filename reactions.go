package server

import "math/rand"

// reactionLines maps a personality to its greeting pool. Lines are flavor
// only; the client renders them in the conversation overlay.
var reactionLines = map[Personality][]string{
	PersonalityFriendly: {
		"Oh! Hello there, boss!",
		"Always a pleasure!",
		"Lovely day for hammering, isn't it?",
	},
	PersonalityCautious: {
		"...you startled me.",
		"Is something wrong with the build?",
		"I was just about to check that beam.",
	},
	PersonalityGrumpy: {
		"What now?",
		"I was working, you know.",
		"Make it quick.",
	},
}

// reactionLine picks a greeting for the given personality. Unknown
// personalities get a neutral line rather than an empty overlay.
func reactionLine(p Personality, rng *rand.Rand) string {
	lines, ok := reactionLines[p]
	if !ok || len(lines) == 0 {
		return "Yes?"
	}
	if rng == nil {
		return lines[0]
	}
	return lines[rng.Intn(len(lines))]
}
