// Package memory provides in-memory implementations of driven ports,
// used in tests and for throwaway runs.
package memory
