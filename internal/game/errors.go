package game

// IllegalBidError reports a bid rejected by the rules: out of turn, out of
// range, already submitted, or blocked by the last-bid restriction. The
// engine state is unchanged and the caller may retry.
type IllegalBidError struct {
	Reason string
}

func (e *IllegalBidError) Error() string {
	return e.Reason
}

// IllegalPlayError reports a card play rejected by the rules: out of turn,
// card not in hand, or a follow-suit violation. The engine state is
// unchanged and the caller may retry.
type IllegalPlayError struct {
	Reason string
}

func (e *IllegalPlayError) Error() string {
	return e.Reason
}
