// Package review ranks a hub's calendar events into review candidates and
// applies the reviewer's decisions.
//
// The Ranker scores every unprocessed, non-dismissed event of a hub with a
// coarse precedence table and returns them heaviest first. An event is
// processed once a signal exists for it; there is no separate flag.
//
// The Promoter turns an accepted event into a signal. When the event
// belongs to a hub and the reviewer supplied relational attributes, they
// are merged into the hub first and a propagation message is emitted once
// the merge has committed. A failed merge aborts the promotion. A failed
// publish is logged and reported on the result, and the signal is still
// written.
//
// The Dismisser stamps an event so it never ranks again.
package review

const instrumentationName = "github.com/fyrsmithlabs/reflectd/internal/review"
