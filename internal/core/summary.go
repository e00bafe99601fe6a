package core

// TagAmount is an amount aggregated under a tag name.
type TagAmount struct {
	Name   string
	Amount float64
}

// AmountStats summarizes the raw amounts of a set of transactions.
// All fields are zero for an empty set.
type AmountStats struct {
	Count   int
	Average float64
	Min     float64
	Max     float64
}
