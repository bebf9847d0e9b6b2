// Package workflow holds the state machine behind the generation flow:
// pick a theme, pick a length, confirm, wait for the video, show the result.
//
// Reduce is a pure transition function over Session values. Controller
// owns the live Session, serialises events through a run-to-completion
// queue and performs the effects Reduce asks for (submitting the request,
// starting and cancelling the poller).
package workflow
