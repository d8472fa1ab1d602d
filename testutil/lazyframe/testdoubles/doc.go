// Package testdoubles provides test doubles (spies) for the lazyframe engine contract.
//
// LibrarySpy implements lazyframe.Reader and lazyframe.BatchReader, records every request it
// receives and answers with canned results, so the lazy layer can be tested without a database.
package testdoubles
