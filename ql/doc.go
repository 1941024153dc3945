// Package ql implements support for parsing and running loglens's
// simple query expressions.
//
// A query is a set of conditions. Conditions joined with && (or " AND ",
// " and ") must all match, groups joined with || (or " OR ", " or ") are
// alternatives. There is no other grouping.
//
// Each condition names a field, an operator and an operand:
//
//	== is   : equal (numeric when both sides are numbers)
//	!= isnot: not equal, also true when the field is missing
//	~= !~=  : case insensitive (in)equality
//	> < >= <=: ordering
//	contains !contains : substring of a string field
//	between !between   : inclusive range, start..end in either order
//	exists !exists     : field presence, a null value still exists
//
// Fields are top level keys, or /-prefixed pointer paths into nested
// objects and arrays. Wrapping a field as num(field) forces its value to a
// number before comparing.
//
// Some field names are special. timestamp, ts and @timestamp compare the
// line's time with an RFC3339 time, "now", or a relative time like
// "15m ago". text searches the raw line: contains takes a comma separated
// list of terms, between and contains+ / contains- look at every number
// found in the line.
//
// A query with no operator at all is a case insensitive substring search of
// the raw line, negated by a leading !.
//
// For example:
//
//	level==error && status>=500
//	timeout
//	!healthcheck
//	num(/req/bytes) > 1024 || text contains "panic,goroutine"
//	timestamp between "1h ago".."now"
//	text contains+ 500
package ql
