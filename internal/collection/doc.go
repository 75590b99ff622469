// Package collection reads and writes .fuo collection files.
//
// A collection file is UTF-8 text: an optional TOML front-matter block
// fenced by "+++" lines, then one model URI per line. Anything after the
// URI ("\t# title - artist ...") is for humans and only used to fill the
// brief model.
//
//	+++
//	title = "My Favorites"
//	updated = "2024-08-01T12:34:56"
//	+++
//	fuo://local/songs/abc	# Song Title - Artist - Album - 03:12
//	fuo://netease/songs/42	# Another - Someone - "Album - Special" - 04:00
//
// # Editing
//
// Add puts the new line at the top and Remove deletes the first matching
// line. Both rewrite the file atomically, synthesize the front-matter when
// it is missing, bump "updated" and keep the trailing newline. Lines that
// fail to parse are logged and skipped on load but left in the file.
//
// # System collections
//
// library.fuo and pool.fuo are reserved. Manager creates them on Scan,
// lists them first and refuses to delete them.
package collection
