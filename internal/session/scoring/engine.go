package scoring

// Config holds the scoring constants.
type Config struct {
	BaseScore        int // awarded for any correct answer
	TimeBonusDivisor int // one bonus point per this many seconds left
	GuessWhoStep     int // points per unused guess-who question, plus one
	GuessWhoCap      int // questions allowed per guess-who round
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BaseScore:        10,
		TimeBonusDivisor: 2,
		GuessWhoStep:     5,
		GuessWhoCap:      20,
	}
}

// Engine computes points. It holds no state.
type Engine struct {
	config Config
}

// NewEngine creates an engine, filling zero fields from DefaultConfig.
func NewEngine(config Config) *Engine {
	def := DefaultConfig()
	if config.BaseScore <= 0 {
		config.BaseScore = def.BaseScore
	}
	if config.TimeBonusDivisor <= 0 {
		config.TimeBonusDivisor = def.TimeBonusDivisor
	}
	if config.GuessWhoStep <= 0 {
		config.GuessWhoStep = def.GuessWhoStep
	}
	if config.GuessWhoCap <= 0 {
		config.GuessWhoCap = def.GuessWhoCap
	}
	return &Engine{config: config}
}

// Config returns the effective constants.
func (e *Engine) Config() Config {
	return e.config
}

// AnswerPoints scores one multiple-choice answer:
// base + max(0, floor(timeLeft / divisor)) when correct, zero otherwise.
func (e *Engine) AnswerPoints(correct bool, timeLeft int) int {
	if !correct {
		return 0
	}
	return e.config.BaseScore + e.TimeBonus(timeLeft)
}

// TimeBonus never goes negative and never grows as time runs out.
func (e *Engine) TimeBonus(timeLeft int) int {
	if timeLeft <= 0 {
		return 0
	}
	return timeLeft / e.config.TimeBonusDivisor
}

// GuessWhoPoints rewards a correct guess made after used questions. Fewer
// questions earn more; a guess beyond the cap earns nothing.
func (e *Engine) GuessWhoPoints(used int) int {
	if used < 1 {
		used = 1
	}
	if used > e.config.GuessWhoCap {
		return 0
	}
	return e.config.GuessWhoStep * (e.config.GuessWhoCap - used + 1)
}
