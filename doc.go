// Package auth provides token based authentication primitives (JWT access and
// refresh token issuance, stateful repositories, HTTP middleware and routes)
// plus lifecycle extension points for downstream admin workflows.
//
// Token pairs:
//   - TokenService signs short lived access tokens and long lived refresh
//     tokens; the two carry a "kind" claim so one can never stand in for the
//     other. Auther.SignIn persists the refresh token on the user record and
//     Auther.Refresh rotates it with a conditional update, so a replayed
//     refresh token is rejected even when two refreshes race.
//
// Request authentication:
//   - The jwtware middleware resolves a principal per request but never
//     rejects on its own: a missing, expired, or malformed token downgrades
//     the request to anonymous. Endpoints that need a signed in user layer
//     RequireAuthenticated (or RequireRole) on top.
//
// User lifecycle:
//   - Users carry a UserStatus field that is persisted via Bun. Statuses cover
//     pending, active, suspended, disabled, and archived flows. Accounts are
//     created pending and become active when a single use email verification
//     token is consumed.
//   - UserStateMachine centralizes the transition graph, timestamp handling,
//     and persistence. Invoke Transition with ActorRef metadata whenever an
//     admin moves an account.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the command
//     handlers, and the state machine to describe sign up, login, refresh,
//     verification, and password change events. Sinks run best-effort (errors
//     are logged) so you can forward to a database or queue without blocking
//     authentication.
package auth
