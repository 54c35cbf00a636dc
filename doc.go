// Package accounts manages user accounts, the authorities granted to them
// and their personal movie and series lists.
//
// Directory is the entry point. It canonicalizes usernames to upper case and
// composes two engines:
//   - AuthorityEngine grants and revokes authorities. Revoking is refused when
//     the user is the last holder of the authority, so no authority ever ends
//     up with zero holders.
//   - ListEngine mutates the six id sets (favorites, watchlist and watched for
//     movies and series). Batch calls validate every id first and persist once.
//
// Both engines re-read the user inside a bun transaction and serialize work
// per user with in-process keyed locks.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the directory, the
//     engines and the Authenticator. Sinks run best-effort (errors are logged)
//     so you can forward to a database or queue without blocking requests.
package accounts
