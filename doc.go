// Package auth provides account credentials for HTTP services: user
// registration, password login that issues HS256 JWTs, and password reset.
//
// Credential store:
//   - CredentialStore is the persistence contract consumed by the workflow.
//     BunCredentialStore implements it on top of go-repository-bun with
//     SQLite or Postgres, bcrypt hashes, a configurable PasswordPolicy and
//     single use reset tickets bound to the user's security stamp.
//
// Claims and tokens:
//   - ComposeClaims builds the claim set for a user on every login: the
//     email as subject, the identifier, the display name and one role claim
//     per assigned role. TokenIssuer signs the set with HS256 for two hours
//     using the first configured audience, and validates tokens it issued.
//
// Workflow:
//   - Workflow runs Register, Login and ResetPassword and returns a Result
//     whose kind maps onto an HTTP status. Store failures are returned as
//     errors, never as results. Each operation is reported to an
//     ActivitySink, MetricsSink exports them as Prometheus counters.
//
// HTTP:
//   - NewHTTPServer mounts /user/register, /user/login and /user/reset-password
//     plus a JWT protected /user/me, /healthz and /metrics on a go-router fiber adapter.
package auth
