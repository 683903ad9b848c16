// Package extension provides the Forge extension for mounting the ledger.
//
// The extension integrates the activity event ledger into the Forge
// application framework by:
//   - Initializing the Ledger with a configured store
//   - Running database migrations on registration
//   - Mounting admin API routes with OpenAPI metadata under a configurable prefix
//   - Starting the dispatcher and retry scheduler on application start
//   - Gracefully stopping them on application shutdown
//   - Providing health checks via store.Ping
//
// Usage:
//
//	app := forge.New(
//	    forge.WithExtensions(
//	        extension.New(
//	            extension.WithStore(postgresStore),
//	            extension.WithBasePath("/ledger"),
//	        ),
//	    ),
//	)
//	app.Run()
package extension
