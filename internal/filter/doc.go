// Package filter narrows an event list on the client.
//
// Filters never touch the store; views apply them to a snapshot before
// rendering. Criteria combine with AND, and list criteria (titles, locations)
// match when any entry matches:
//   - Date ranges ("Mar 1-15", "March 1 - April 15", "March"), matched on overlap
//   - Title and location substrings, case-insensitive
//   - Owner username
//   - Weekends only (the event starts on a Saturday or Sunday)
//   - Upcoming only (the event has not ended yet)
//
// Example usage:
//
//	from, to, err := filter.ParseDateRange("Mar 1-15", time.Now())
//	f := filter.NewFilter()
//	f.DateFrom, f.DateTo = &from, &to
//	f.Titles = []string{"meetup"}
//	visible := f.Apply(st.Events())
package filter
