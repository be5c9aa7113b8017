// Package commands implements the dashboard CLI.
//
//	dashboard            same as "dashboard serve"
//	dashboard serve      run the HTTP server until SIGINT/SIGTERM
//	dashboard routes     print the resolved route manifest
package commands
