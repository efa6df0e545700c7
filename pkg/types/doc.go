// Package types defines the depersonalization data model (record type
// configuration, field source maps, classification policies, records and
// schemas), the Store and Catalog contracts consumed by the engine, and the
// standard error types.
package types
