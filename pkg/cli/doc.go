// Package cli implements the veil command line client.
//
// # Overview
//
// Commands talk to a running veil server over its HTTP API:
//
//	veil detect -text "call me at alice@example.com"
//	veil redact -file notes.txt -strategy tag_replace -audit
//	veil verify -file redacted.txt
//	veil strategies
//
// The patterns command works locally, validating custom rule pack manifests
// before they are dropped into the server's pattern directory:
//
//	veil patterns validate ./packs
//
// Server location and credentials come from -server and -api-key flags on
// each command.
package cli
