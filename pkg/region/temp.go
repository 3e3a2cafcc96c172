package region

// Temp is a saved position on an arena, used to roll back every push made
// since it was taken. Temp markers nest LIFO: ending an outer
// Temp while an inner one is still open rolls back both. Out-of-order use
// is not tracked as such: the inner Temp's later End() finds its saved
// position ahead of the arena's, raises CannotPopMore, and leaves the
// position where the outer End() put it.
type Temp struct {
	arena    *Region
	savedPos uint64
}

// TempBegin saves a's current position.
func (a *Region) TempBegin() Temp {
	return Temp{arena: a, savedPos: a.pos}
}

// End rolls t's arena back to the position it had when t was taken.
func (t Temp) End() {
	if t.arena == nil {
		return
	}
	t.arena.PopTo(t.savedPos)
}

// WithTemp runs fn with a scoped Temp over a, ending it when fn returns
// even if fn panics, the idiomatic Go equivalent of a begin/end pair
// wrapped in a defer.
func WithTemp(a *Region, fn func(*Region)) {
	t := a.TempBegin()
	defer t.End()
	fn(a)
}
