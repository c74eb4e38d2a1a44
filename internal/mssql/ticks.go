package mssql

import "time"

// ticksPerSecond is the number of 100-nanosecond intervals per second, the
// resolution of a .NET DateTime.Ticks value.
const ticksPerSecond = int64(10_000_000)

// unixEpochTicks is .NET's DateTime.Ticks value at the Unix epoch
// (0001-01-01T00:00:00 to 1970-01-01T00:00:00).
const unixEpochTicks = int64(621355968000000000)

// toTicks converts a SQL Server modify_date (or any time.Time) into the
// stable 64-bit tick value spec §4.1 requires: a client-language-neutral
// integer the planner can compare across runs without reparsing a
// timestamp string.
func toTicks(t time.Time) int64 {
	return unixEpochTicks + t.UTC().UnixNano()/100
}
