// Package visibility defines the oracle boundary used to answer whether a
// target can be observed inside a time window. Implementations wrap an
// ephemeris service; the scheduling core only depends on the interface.
package visibility
