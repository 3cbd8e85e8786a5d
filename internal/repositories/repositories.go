// package repositories provides the local persistence layer backing the admin client.
//
// Two stores live in the client database: durable session state (token and user,
// written and cleared together) and a cache of recently listed episodes for the
// player. Schema management lives in [shared.RunMigrations].
package repositories

// Keys for the session_state key-value table. Token and user are persisted and
// cleared as a unit; neither exists without the other.
const (
	sessionTokenKey = "token"
	sessionUserKey  = "user"
)
