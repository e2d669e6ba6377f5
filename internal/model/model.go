// Package model defines the registry's domain aggregates and the transfer
// records exchanged with callers.
//
// Aggregates (Person, Address) are what repositories persist. Records
// (PersonRecord, AddressRecord) are what services accept and return; they use
// pointer fields wherever "absent" must be told apart from a zero value.
//
// Ownership is one-directional: a Person holds its Address collection, and an
// Address only stores the id of its owner as a back-reference.
package model
