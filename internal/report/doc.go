// Package report renders audit problems as text and delivers the text either to
// standard output or to a Slack channel.
//
// Reports shorter than InlineLimit characters are posted as a message attachment;
// longer reports are uploaded as a file and announced with a pointer message.
package report
