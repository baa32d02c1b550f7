// Package star reads and writes files in STAR format. Both NMR
// dialects (NEF and NMR-STAR) are STAR files, and so is mmCIF, so the
// residue dictionary and the coordinate reader use this package as well.
//
// Notes about the format, as much as we need of it:
//  data_name      starts a data block. We call it an Entry.
//  save_name      starts a save frame, a bare save_ ends it.
//  loop_          is followed by tags, then values, row-major. NMR-STAR and
//                 NEF end a loop with stop_, mmCIF just starts something new.
//  _cat.tag val   is a data item.
//  #              at the start of a word starts a comment.
//  '...' "..."    quote a value. A quote only closes if followed by white space.
//  ;              in the first column opens and closes a multi-line value.
// A question mark, ?, means a missing value.
// A dot, ., means not appropriate or deliberately left out.
//
// We read line by line with a small set of state functions. Nothing is
// thrown away here, unlike the coordinate reader we grew out of. Files
// are small compared to the PDB archive.
package star
