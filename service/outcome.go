package service

// Outcome is the result of combining the user and house seeds
type Outcome struct {
	Combined uint64
	Result   bool
	UserWon  bool
}

// Flip combines both seeds with wrapping addition. An even sum lands heads.
// The house seed is chosen after the user seed is known, so whoever supplies
// it can pick the outcome.
func Flip(userSeed, houseSeed uint64, userGuess bool) Outcome {
	combined := userSeed + houseSeed
	result := combined%2 == 0
	return Outcome{
		Combined: combined,
		Result:   result,
		UserWon:  result == userGuess,
	}
}
