// meta/meta.go
package meta

// RUN_TIME is the number of ticks in a race.
const RUN_TIME = 300

// EPS is the tolerance applied to the finish line.
const EPS = 1e-3

// DEFAULT_STRATEGY is bound to cockroaches whose strategy name is not registered.
const DEFAULT_STRATEGY = "default"

// DEFAULT_ADDR is where the race service listens.
const DEFAULT_ADDR = ":9002"

// DEFAULT_DB is the sqlite file holding stored snapshots.
const DEFAULT_DB = "roachrace.db"
