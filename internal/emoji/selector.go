package emoji

import "log/slog"

// Selection strategy names, as configured via emoji_select_strategy.
const (
	StrategyRandom     = "random"
	StrategyEmotionLLM = "emotion_llm"
)

// Selector picks reaction ids according to the configured strategy.
// It never fails: the worst case is an empty result when the global pool
// itself is empty.
type Selector struct {
	strategy string
	pool     *Pool
	mapping  *Mapping
}

// NewSelector builds a selector. An unknown strategy is kept as-is and
// degrades to random at selection time (with a warning), so a config typo
// never disables reacting.
func NewSelector(strategy string, pool *Pool, mapping *Mapping) *Selector {
	return &Selector{strategy: strategy, pool: pool, mapping: mapping}
}

// NeedsEmotion reports whether Select benefits from an emotion label,
// i.e. whether the caller should bother invoking the classifier.
func (s *Selector) NeedsEmotion() bool {
	return s.strategy == StrategyEmotionLLM
}

// Select returns up to need reaction ids for a message. emotion may be empty;
// it is only consulted by the emotion_llm strategy.
func (s *Selector) Select(emotion string, need int) []int {
	switch s.strategy {
	case StrategyRandom:
		return s.pool.Sample(need)
	case StrategyEmotionLLM:
		return s.selectByEmotion(emotion, need)
	default:
		slog.Warn("unknown emoji selection strategy, falling back to random", "strategy", s.strategy)
		return s.pool.Sample(need)
	}
}

// selectByEmotion samples from the first matching label pool and pads the
// result from the global pool (with replacement) until it reaches need.
// No emotion or no matching label degrades to random.
func (s *Selector) selectByEmotion(emotion string, need int) []int {
	if emotion == "" {
		return s.pool.Sample(need)
	}

	ids, ok := s.mapping.Match(emotion)
	if !ok {
		return s.pool.Sample(need)
	}

	selected := sample(ids, need)
	for len(selected) < need {
		id, ok := s.pool.PickOne()
		if !ok {
			break
		}
		selected = append(selected, id)
	}
	return selected
}
