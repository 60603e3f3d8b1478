package app

import (
	"sort"

	"trivia-quiz-service/internal/domain"
)

const (
	pollMinPercent = 5
	pollMaxPercent = 25
)

// evenOdds keeps the correct option plus one random incorrect one, in random order.
func evenOdds(rnd Rand, q domain.Question) []string {
	wrong := incorrectOptions(q.Options, q.Answer)
	if len(wrong) == 0 {
		return []string{q.Answer}
	}
	pair := []string{q.Answer, wrong[rnd.Intn(len(wrong))]}
	rnd.Shuffle(len(pair), func(i, j int) { pair[i], pair[j] = pair[j], pair[i] })
	return pair
}

// audiencePoll gives each incorrect option 5-25% and the correct one the rest.
// The poll covers every option of the question, even after even-odds.
// Draws are capped so that every option, the correct one included, gets at least 1%.
func audiencePoll(rnd Rand, options []string, correct string) []domain.Vote {
	wrong := incorrectOptions(options, correct)
	rnd.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })

	votes := make([]domain.Vote, 0, len(wrong)+1)
	remaining := 100
	for i, opt := range wrong {
		after := len(wrong) - i - 1
		hi := min(pollMaxPercent, remaining-(after+1))
		lo := min(pollMinPercent, hi)
		if hi < 1 {
			lo, hi = 1, 1
		}
		pct := lo + rnd.Intn(hi-lo+1)
		votes = append(votes, domain.Vote{Option: opt, Percent: pct})
		remaining -= pct
	}
	votes = append(votes, domain.Vote{Option: correct, Percent: remaining})

	sort.SliceStable(votes, func(i, j int) bool { return votes[i].Percent > votes[j].Percent })
	return votes
}

func incorrectOptions(options []string, correct string) []string {
	wrong := make([]string, 0, len(options))
	for _, opt := range options {
		if opt != correct {
			wrong = append(wrong, opt)
		}
	}
	return wrong
}
