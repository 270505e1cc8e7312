// go-overtime-admin is a small multi-tenant web application for tracking
// employee overtime hours, with an admin view scoped to organizational groups.
package main
