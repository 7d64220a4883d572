// Package datasource provides a uniform, strictly read-only abstraction
// over the backing stores a plant assistant queries.
//
// Every read returns a Result annotated with provenance (source id, table,
// query timestamp, row count) so downstream callers can cite where a fact
// came from. A composite Router dispatches by operation category to one of
// several configured sources. Zero rows is a valid, citable outcome and is
// never reported as an error.
package datasource
