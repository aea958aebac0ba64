// Package logging provides leveled, printf-style logging for the media
// indexer.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR. FATAL always prints and
// exits. The level is read once from DEBUG (1/true/yes/on forces debug) or
// LOG_LEVEL (debug, info, warn, error; default info).
//
// Long-running jobs use a Prefixed logger so their lines can be told apart:
//
//	log := logging.Prefixed("scan")
//	log.Warn("skipping %s: %v", path, err) // [WARN] [scan] skipping ...
package logging
