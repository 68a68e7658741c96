// Package httpapi exposes MediaKit's capabilities over HTTP and serves the
// embedded browser UI.
//
// Every /api route sits behind an optional bearer token. Handlers record
// download, transcription and boot animation jobs in the ledger and map
// classified errors onto status codes: validation problems and empty results
// echo their message, while tool failures and I/O errors return a generic
// body and are logged in full.
package httpapi
