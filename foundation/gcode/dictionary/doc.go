// Package dictionary compiles annotation dictionaries and resolves
// letter/value lookups against them.
//
// Package: dictionary
// Title: Annotation Dictionary
// Description: Holds the profile-defined mapping from G-code words to
//              human descriptions. Entries declare an exact value, a
//              numeric range or a wildcard per letter class; lookups
//              prefer exact over range over wildcard matches, with ties
//              broken by declaration order. Compiled dictionaries are
//              immutable and safe for concurrent readers.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-05
// Modified: 2026-02-05
//
// Change History:
// - 2026-02-05 v0.1.0: Initial implementation of dictionary compilation
package dictionary
