// Package mock provides test doubles for the ai package interfaces.
//
// Each mock has a default deterministic behavior and a function field for
// injecting custom behavior per test, plus a call counter for assertions.
package mock
