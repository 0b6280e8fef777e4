// Package queryir provides the query intermediate representation shared by
// the interactive Session and the batch join path.
//
// Two node types exist:
//
//	Select  - a single triple pattern in textual form; evaluated by the
//	          Session (count, drain, nearest selection)
//	Join    - a predicate/literal filter driving a one- or two-hop
//	          index-nested-loop join
//
// Query is a sealed interface using the marker method pattern, so engine
// code can switch exhaustively over node types:
//
//	switch q := query.(type) {
//	case Select:
//	    // evaluate pattern
//	case Join:
//	    // run join
//	}
//
// Join filters arrive from the command line as "predicate;literal". The
// predicate is written without angle brackets and the literal without
// quotes; ParseFilter splits on the first ';' only, so literals may contain
// further semicolons.
package queryir
