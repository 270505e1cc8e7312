// Package auth provides authentication and authorization functionality for the application.
//
// Authentication is local only: usernames and Argon2id password hashes live in
// the database and are verified on login.
//
// Authorization is grant based. An administrator may act on a group only when
// an explicit grant (an AdminGroup row) exists for that admin and group. Group
// membership never implies management rights, not even over the admin's own
// group, and common users hold no rights at all.
//
// The Service type answers the two authorization questions:
//   - ManagedGroupIDs: which groups may this actor act on
//   - CanManage: may this actor act on this specific group
//
// Fiber middleware is provided for route protection:
//   - AddActorToLocals: resolve the session into a fresh User and store it in Locals
//   - RequireAdmin: reject non-admin actors before the handler runs
//
// Example usage:
//
//	authService := auth.NewService(db)
//
//	app.Use(web.AuthMiddleware)
//	app.Use(auth.AddActorToLocals(db))
//
//	admin := app.Group("/admin", auth.RequireAdmin)
//
//	// In a handler
//	actor := auth.Actor(c)
//	ok, err := authService.CanManage(actor, groupID)
package auth
