package domain

// Call lifecycle actions.
const (
	CallActionAccept = "accept"
	CallActionEnd    = "end"
)

// callTransitions maps a call-session action to the statuses it may start
// from. The graph is monotone: ended is terminal and waiting is never
// re-entered.
var callTransitions = map[string][]string{
	CallActionAccept: {CallWaiting},
	CallActionEnd:    {CallWaiting, CallConnected},
}

// CallTransitionSources returns the statuses action may start from. The
// session repository builds its conditional updates from this table, so the
// lifecycle rules live in exactly one place.
func CallTransitionSources(action string) []string {
	return callTransitions[action]
}

// ValidCallTransition reports whether action is allowed from fromStatus.
func ValidCallTransition(action, fromStatus string) bool {
	for _, status := range CallTransitionSources(action) {
		if status == fromStatus {
			return true
		}
	}
	return false
}
