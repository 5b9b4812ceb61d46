// Package teams holds the FRC team record model and the flattened lookup table
// that fetch-teams persists for downstream consumers.
//
// # Building the table
//
//	records := result.Records // []teams.Record from the pagination driver
//	table := teams.Build(records)
//
// Records without a team number are dropped. When the same team number appears
// more than once the later record wins.
//
// # Persisting
//
//	if err := teams.WriteFile("src/lib/teams.json", table); err != nil {
//		return err
//	}
//
// The file is a single minified JSON object:
//
//	{"254":{"name":"The Cheesy Poofs"},"1114":{"name":"Simbotics"}}
//
// Non-ASCII characters are written literally (UTF-8), not as \u escapes. The
// target is replaced atomically via a temporary file in the same directory.
package teams
