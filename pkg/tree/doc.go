// Package tree implements the structural core of an editable tree: nodes
// held in an Arena and addressed by NodeID, the Direction algebra, and the
// Fragment splices (Adopt and Disown) that move contiguous sibling runs in
// and out of a parent's child list.
//
// Every splice checks that the gap it touches is well formed before any
// field is written, so a failed Adopt or Disown leaves the tree exactly as it
// was. Nothing here is safe for concurrent use: an Arena has one mutator at a
// time.
package tree
