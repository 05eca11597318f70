// Package snapshot provides JSON export and import of plane stacks.
//
// # Overview
//
// A snapshot records the z-order stack of a [plane.Context] from top to
// bottom together with each plane's geometry, cursor and binding links.
// Snapshots serve three purposes:
//
//   - the json artifact of a scenario run
//   - the response body of the debug server's /planes endpoint
//   - reproducing a stack later with [Restore]
//
// # JSON Format
//
//	{
//	  "terminal": {"rows": 24, "cols": 80},
//	  "planes": [
//	    {"id": "p0002", "y": 2, "x": 3, "rows": 1, "cols": 2, "parent": "p0001"},
//	    {"id": "p0001", "name": "menu", "y": 1, "x": 2, "rows": 3, "cols": 4, "children": ["p0002"]},
//	    {"id": "p0000", "name": "std", "std": true, "rows": 24, "cols": 80}
//	  ],
//	  "findings": []
//	}
//
// Planes are listed top to bottom. Coordinates are absolute. children
// lists the bound planes in list order, most recently bound first.
// findings is present when the snapshot was taken with a validator
// report.
package snapshot
