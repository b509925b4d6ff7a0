// Package cli provides the interactive RentSaathi listing client.
//
// The REPL stands in for the app screens: browsing the public feed, "my
// listings", the BHK and search filters, creating a listing from a locally
// stored draft, editing, toggling and deleting. A background watcher pings
// the document store and refreshes the feed when connectivity returns;
// when an event bus is configured, changes made by other clients trigger a
// refresh too.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
