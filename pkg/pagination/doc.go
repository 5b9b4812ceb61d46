// Package pagination drives sequential page fetching for TBA list endpoints.
//
// TBA does not report a page count. Pages are numbered from 0 and the first
// empty page (404 or []) marks the end of the data set. The driver walks pages
// one at a time and applies two termination guards:
//
//   - MaxPages: once the page counter passes MaxPages-1 after a page whose
//     retries were exhausted, pagination stops with whatever was collected.
//   - HardPageLimit: an absolute bound on iterations so the loop terminates
//     even when the API never returns an empty page.
//
// Example usage:
//
//	tbaClient, _ := client.New(client.DefaultConfig(apiKey))
//	driver := pagination.NewDriver(tbaClient, pagination.DefaultConfig())
//	result, err := driver.FetchAll(ctx)
//
// The driver:
//   - Appends records from successful pages
//   - Stops on the first empty page
//   - Skips pages whose retries were exhausted
//   - Aborts on fatal errors (unexpected HTTP status, cancelled context)
//   - Paces requests with a fixed delay to stay under TBA's rate limit
package pagination
