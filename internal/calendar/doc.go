// Package calendar exports events as an iCalendar (.ics) feed.
package calendar
