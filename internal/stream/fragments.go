package stream

import "iter"

// Fragments returns the user-visible text carried by ev, in order.
//
// Only model-token events produce fragments. Plain parts are yielded as is,
// typed parts only when their type is "text". Empty fragments are yielded;
// dropping them is left to the encoder.
func Fragments(ev Event) iter.Seq[string] {
	return func(yield func(string) bool) {
		if ev.Kind != KindModelToken {
			return
		}
		for _, part := range ev.Content {
			switch part.Kind {
			case PartPlain:
				if !yield(part.Text) {
					return
				}
			case PartTyped:
				if part.Type != "text" {
					continue
				}
				if !yield(part.Text) {
					return
				}
			case PartUnrecognized:
			}
		}
	}
}
