/*
Package authsdk is the client-side authentication and session manager for the
medrec backend.

# SDKClient vs Manager

The package is organized around two types:

  - SDKClient: stateless protocol operations against the backend's auth
    endpoints, with ordered multi-endpoint fallback
  - Manager: the stateful session manager UI and data layers talk to; it owns
    a SessionStore and returns discriminated results

Create an SDKClient with the deployment's candidate base URLs. Candidates are
tried strictly in order, each bounded by an attempt timeout, and only when all
of them fail does an operation fail with an aggregated endpoints error:

	client := authsdk.NewSDKClient("https://api.clinic.example.com", "https://clinic.example.com")
	manager := authsdk.NewManager(client, authsdk.NewMemoryStore(), logger)

# Credential lifecycle

Login, SSO completion and SSO conflict resolution all persist a credential the
same way: the compact token's claims are decoded locally, the expiry claim is
validated against the clock, and the (token, user projection) pair is written
atomically to the SessionStore. A token that fails local validation is never
persisted, even on a 2xx response.

	res := manager.Login(ctx, "alice", "secret")
	if !res.Success {
		// res.Err carries the server's message verbatim
	}

Expected protocol failures are values on the result types, never panics.
Typed errors mark the branches callers must tell apart: *EndpointsError (all
candidates unreachable), *APIError (structured server error),
*RegistrationDisabledError (must not be flattened into a generic message).

# Single sign-on

CompleteSSOAuth has three outcomes on its SSOResult: authenticated, conflict,
or failure. A conflict carries a single-use ticket; redeem it with
ResolveSSOConflict, which round-trips to the server on every call so a
replayed ticket surfaces the server's rejection instead of a stale local
success:

	res := manager.CompleteSSOAuth(ctx, code, state)
	switch {
	case res.Conflict:
		res = manager.ResolveSSOConflict(ctx, res.Ticket.TempToken, authsdk.ConflictActionMerge, pref)
	case res.Success:
		// authenticated, credential persisted
	}

# Authenticated requests

Manager.Do attaches the stored credential when it is locally valid and, on a
401, performs exactly one refresh and one retry. A retried request that fails
again is surfaced, not retried. A refresh completing after a concurrent
logout loses: session writes are generation-guarded, so a cleared session is
never resurrected by a late refresh result.

Managers are safe for concurrent use.
*/
package authsdk
