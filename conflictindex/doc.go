// Package conflictindex keeps the active windows of every doctor in memory to answer
// "which active reservations of doctor X overlap window Y" without touching the event store.
//
// Each doctor has its own schedule sorted by window start and its own RWMutex. Lookups hold the
// index-wide lock only to find the schedule, so lookups for different doctors never contend.
// Updates hold it for the duration of a single schedule change. A lookup binary searches the first window starting at or after
// the end of the requested window and scans backwards only as far as the longest window of that doctor
// can reach, which keeps it logarithmic plus the number of candidates for realistic schedules.
//
// The index is derived state. It can be dropped and rebuilt from the event stream at any time.
package conflictindex
