// Package tasklist reconciles fresh findings with the persistent task list.
//
// The task list is the report sheet operators work from. Every run parses
// the previous list, refreshes items whose finding recurs, keeps manual
// items, drops resolved ones, appends new findings dated today and sorts
// the result. Render turns the list back into rows for the sink.
package tasklist
