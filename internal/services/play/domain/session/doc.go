// Package session holds the playback session entity and its lifecycle rules.
//
// A session moves from an open status (not_started, in_progress) to exactly
// one terminal status (completed, incomplete, passed, failed). Open sessions
// accept playback updates; ending is the only path that writes score fields,
// and a terminal session accepts no further mutation.
package session
