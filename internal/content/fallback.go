package content

import (
	"slices"

	"github.com/gokatarajesh/riddle-party/internal/game"
)

var commonFallback = []game.Riddle{
	{
		Question:     "What is the thing that grows less the more it increases?",
		Options:      []string{"Age", "Money", "A hole", "Knowledge"},
		CorrectIndex: 0,
		Explanation:  "Every year added to your age is a year less left to live.",
	},
	{
		Question:     "Something you own, yet other people use it more than you do. What is it?",
		Options:      []string{"Your car", "Your name", "Your phone", "Your shoes"},
		CorrectIndex: 1,
		Explanation:  "People call you by your name far more often than you say it yourself.",
	},
}

var fallbackByDifficulty = map[game.Difficulty]game.Riddle{
	game.DifficultyEasy: {
		Question:     "What has keys but can't open a single lock?",
		Options:      []string{"A map", "A piano", "A jailer", "A car"},
		CorrectIndex: 1,
		Explanation:  "A piano has plenty of keys and no locks at all.",
	},
	game.DifficultyMedium: {
		Question:     "The more you take, the more you leave behind. What are they?",
		Options:      []string{"Photos", "Breaths", "Footsteps", "Coins"},
		CorrectIndex: 2,
		Explanation:  "Every step you take leaves a footprint behind you.",
	},
	game.DifficultyHard: {
		Question:     "What can run but never walks, has a mouth but never talks, has a bed but never sleeps?",
		Options:      []string{"A river", "A clock", "A road", "A fox"},
		CorrectIndex: 0,
		Explanation:  "A river runs, has a mouth where it meets the sea and flows over its bed.",
	},
}

// FallbackRiddles returns the built-in set for difficulty. The result is a
// fresh copy and is never empty.
func FallbackRiddles(difficulty game.Difficulty) []game.Riddle {
	out := make([]game.Riddle, 0, len(commonFallback)+1)
	for _, r := range commonFallback {
		r.Options = slices.Clone(r.Options)
		out = append(out, r)
	}
	if extra, ok := fallbackByDifficulty[difficulty]; ok {
		extra.Options = slices.Clone(extra.Options)
		out = append(out, extra)
	}
	return out
}
