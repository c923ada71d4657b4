// Package script drives a tree.Arena from declarative edit scripts.
//
// A script is a YAML (or JSON) document naming nodes and listing splice
// steps against them: create, chain, adopt, disown, dispose, remove and
// verify. Run executes the steps against a fresh arena and renders the
// resulting forest as text such as "P(A D(E) B)", which can be compared to
// an expected rendering. Steps may declare the error class they are expected
// to fail with, so precondition failures are scriptable too.
package script
