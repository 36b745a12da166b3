// Package doctree is the in-memory model of a rich-text document: a mutable
// tree of containers and text leaves, the positions and ranges that address
// it, and the algorithms that edit it while keeping held positions valid.
//
// # Addressing
//
// A Position is a path of integers from the tree root. Every element except
// the last is a child index; the last element is an offset inside the node
// named by the preceding elements. Inside a container the offset is a child
// boundary (0..child count); inside a leaf it is a UTF-16 code unit offset
// (0..text length).
//
//	<document>
//	  <p> "abcd" </p>          [0]    before <p>
//	  <p> "efgh" </p>          [0,0]  inside <p>, before "abcd"
//	</document>                [0,0,2] between "ab" and "cd"
//	                           [1]    between the two paragraphs
//
// Positions are values bound to one snapshot of the tree. After a structural
// edit they must be carried forward through the Mapper returned by the edit.
//
// # Editing
//
// All structural edits go through a Mutator obtained from Tree.Begin. Every
// method returns fresh positions or ranges valid after the edit and appends
// its step maps to the Mutator's accumulated Mapper, which callers use to
// remap selections they held before the transaction started.
package doctree
