// Package provision creates ArangoDB databases, graphs, collections and
// views on first use.
//
// Every Ensure function checks for the object, creates it when missing and
// returns a handle. Concurrent processes may race to create the same
// object; a duplicate-name error from the server counts as success.
// Any other error is returned wrapped, so errors.Is and driver.IsArangoError
// helpers still reach the driver error.
package provision
