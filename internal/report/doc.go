// Package report renders the summary of an audit run.
//
// Three writers are provided:
//   - TextWriter: plain text for the terminal
//   - MarkdownWriter: Markdown for chats and wikis
//   - JSONWriter: JSON for other tools
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
