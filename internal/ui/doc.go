// Package ui is the Bubble Tea front end of the studio client.
//
// The model never changes workflow state itself. Key presses become intents
// on the workflow controller (SelectTheme, SelectDuration, ConfirmGenerate,
// Restart, DismissError, LoadThemes) and the view renders whatever session
// the controller reports back.
//
// Session changes arrive through a Notifier: the controller signals it from
// whatever goroutine processed the event, and a waiting command turns the
// signal into a message carrying the latest session. Signals never block,
// so polling callbacks cannot stall on a busy UI.
//
// A one-second tick refreshes the health indicator from state.Store and,
// while the overlay is open, the session log tail.
//
// Keys: ↑/↓ or j/k move, enter chooses, 1 and 2 reopen the theme and
// length pickers, r starts over, x dismisses an error, R reloads themes,
// L shows the session log, T cycles colours, ? shows help, q quits.
package ui
